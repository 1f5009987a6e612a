package exchange

import (
	"fmt"
	"strings"
	"time"

	"github.com/vbonduro/traincheck/internal/domain"
)

const reportSeparatorWidth = 30

// ReadableReport renders check-ins, in the order given, as plain text meant
// for sharing. It cannot be imported back.
func ReadableReport(trains []*domain.Train, checkins []*domain.Checkin, generatedAt time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	labels := make(map[string]string, len(trains))
	for _, t := range trains {
		labels[t.ID] = t.ID
	}

	var b strings.Builder
	b.WriteString("📊 Train check-in log\n")
	fmt.Fprintf(&b, "Date: %s\n", generatedAt.In(loc).Format(domain.DateLayout))
	fmt.Fprintf(&b, "Total: %d\n", len(checkins))
	fmt.Fprintf(&b, "\n%s\n\n", strings.Repeat("=", reportSeparatorWidth))

	for i, c := range checkins {
		label, ok := labels[c.TrainID]
		if !ok {
			label = c.TrainID
		}
		fmt.Fprintf(&b, "[%d] %s\n", i+1, c.Timestamp.In(loc).Format("2006-01-02 15:04"))
		fmt.Fprintf(&b, "🚇 Train: %s\n", label)
		fmt.Fprintf(&b, "📍 Platform: %d\n", c.Platform)
		if c.Notes != "" {
			fmt.Fprintf(&b, "📝 Notes: %s\n", c.Notes)
		}
		b.WriteString("\n")
	}

	return b.String()
}
