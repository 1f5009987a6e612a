package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/traincheck/internal/db"
	"github.com/vbonduro/traincheck/internal/domain"
)

// stubPhotoStore is a minimal in-memory photostore.PhotoStore for tests.
type stubPhotoStore struct {
	mu      sync.Mutex
	saved   map[string][]byte
	saveErr error
	// failOnSave makes the n-th Save (1-based) fail with saveErr.
	failOnSave int
	saves      int
}

func newStubPhotoStore() *stubPhotoStore {
	return &stubPhotoStore{saved: make(map[string][]byte)}
}

func (s *stubPhotoStore) Save(_ context.Context, name, _ string, r io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil && (s.failOnSave == 0 || s.failOnSave == s.saves) {
		return "", s.saveErr
	}
	data, _ := io.ReadAll(r)
	key := name + ".jpg"
	s.saved[key] = data
	return key, nil
}

func (s *stubPhotoStore) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.saved[key]
	if !ok {
		return nil, "", fmt.Errorf("photo %s: %w", key, domain.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), "image/jpeg", nil
}

func (s *stubPhotoStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.saved, key)
	return nil
}

func (s *stubPhotoStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

type testEnv struct {
	db    *sql.DB
	set   *Set
	blobs *stubPhotoStore
	clock *fakeClock
}

func newTestEnv(t *testing.T, configure ...func(*Options)) *testEnv {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })

	clock := &fakeClock{now: time.Date(2026, 3, 14, 9, 30, 15, 0, time.UTC)}
	opts := Options{
		Now:      clock.Now,
		NewID:    sequentialIDs(),
		Location: time.UTC,
	}
	for _, fn := range configure {
		fn(&opts)
	}

	blobs := newStubPhotoStore()
	return &testEnv{
		db:    d,
		set:   New(d, blobs, opts, slog.Default()),
		blobs: blobs,
		clock: clock,
	}
}

func (e *testEnv) registerTrains(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := e.set.Trains.Register(context.Background(), id)
		require.NoError(t, err)
	}
}

func (e *testEnv) photoRowCount(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRow(`SELECT COUNT(*) FROM photos`).Scan(&n))
	return n
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: uint8(x * 20), B: uint8(y * 30), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var errDiskFull = errors.New("disk full")
