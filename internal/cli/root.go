// Package cli implements the traincheck command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vbonduro/traincheck/internal/config"
	"github.com/vbonduro/traincheck/internal/db"
	"github.com/vbonduro/traincheck/internal/imaging"
	"github.com/vbonduro/traincheck/internal/logging"
	"github.com/vbonduro/traincheck/internal/photostore/local"
	"github.com/vbonduro/traincheck/internal/service"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

// annotationSkipConfigFile marks commands that run before a config file exists.
const annotationSkipConfigFile = "skip-config-file"

const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// app holds the state shared by one command invocation.
type app struct {
	v *viper.Viper

	configFile string
	jsonOut    bool
	yes        bool

	cfg      *config.Config
	loc      *time.Location
	logger   *slog.Logger
	closeLog func()

	handle *db.Handle
	svc    *service.Set

	// now is the clock handed to the services. Nil means time.Now.
	now func() time.Time
}

func newApp() *app {
	return &app{v: config.NewViper()}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "traincheck",
		Short:         "Traincheck is a personal log of train inspection check-ins",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Annotations[annotationSkipConfigFile] == "true")
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: <data-dir>/config.yaml)")
	flags.String("data-dir", "", "data directory (default: ~/.traincheck)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&a.jsonOut, "json", false, "output as JSON")
	flags.BoolVarP(&a.yes, "yes", "y", false, "do not ask for confirmation")
	_ = a.v.BindPFlag(config.KeyDataDir, flags.Lookup("data-dir"))
	_ = a.v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))

	root.AddCommand(
		newTrainCmd(a),
		newTaskCmd(a),
		newCheckinCmd(a),
		newCalendarCmd(a),
		newUsageCmd(a),
		newPurgeCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	return newApp().run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func (a *app) run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if terr := a.teardown(); terr != nil && err == nil {
		err = terr
	}
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(stderr, "Error:", err)
	return exitCode(err)
}

func (a *app) setup(skipConfigFile bool) error {
	// A missing .env is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	configFile := a.configFile
	if skipConfigFile {
		configFile = ""
	}
	cfg, err := config.Load(a.v, configFile)
	if err != nil {
		return usageError{err}
	}
	a.cfg = cfg

	if a.loc, err = cfg.Location(); err != nil {
		return usageError{err}
	}

	logger, closeLog, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	a.closeLog = closeLog
	return nil
}

func (a *app) teardown() error {
	var err error
	if a.handle != nil {
		err = a.handle.Close()
	}
	if a.closeLog != nil {
		a.closeLog()
		a.closeLog = nil
	}
	return err
}

// services opens the store on first use and wires the service set.
func (a *app) services() (*service.Set, error) {
	if a.svc != nil {
		return a.svc, nil
	}

	a.handle = db.NewHandle(a.cfg.DBPath)
	database, err := a.handle.Open()
	if err != nil {
		return nil, err
	}

	blobs, err := local.NewLocalPhotoStore(a.cfg.PhotoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize photo store: %w", err)
	}

	a.svc = service.New(database, blobs, service.Options{
		Now:          a.now,
		Location:     a.loc,
		Image:        imaging.Options{MaxDimension: a.cfg.PhotoMaxDimension, Quality: a.cfg.PhotoQuality},
		AtomicSubmit: a.cfg.AtomicSubmit,
	}, a.logger)
	return a.svc, nil
}

func (a *app) clock() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now()
}

func (a *app) configPath() string {
	if a.configFile != "" {
		return a.configFile
	}
	return filepath.Join(a.cfg.DataDir, config.FileName)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
