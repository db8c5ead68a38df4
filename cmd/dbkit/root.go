package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/syssam/dbkit/config"
	_ "github.com/syssam/dbkit/dialect/sql/mysql"
	_ "github.com/syssam/dbkit/dialect/sql/postgres"
	_ "github.com/syssam/dbkit/dialect/sql/sqlite"
	"github.com/syssam/dbkit/platform"
)

// app holds the state shared by the subcommands.
type app struct {
	configPath string
	dialect    string
	dsn        string
	debug      bool
	stats      bool

	cfg    *config.Config
	logger *slog.Logger
	// opened is the platform of the running command, if it connected.
	opened platform.Platform
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "dbkit",
		Short:         "Introspect databases and create tables across Postgres, MySQL and SQLite",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			a.report(cmd)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Configuration file (TOML)")
	flags.StringVarP(&a.dialect, "dialect", "d", "", "Database dialect: "+fmt.Sprint(platform.Dialects()))
	flags.StringVar(&a.dsn, "dsn", "", "Data source name; overrides the configuration and "+config.EnvDSN)
	flags.BoolVar(&a.debug, "debug", false, "Log every statement")
	flags.BoolVar(&a.stats, "stats", false, "Print statement counts per kind to stderr")

	root.AddCommand(
		a.versionCmd(),
		a.tablesCmd(),
		a.describeCmd(),
		a.createCmd(),
		a.parseCmd(),
		a.dropCmd(),
	)
	return root
}

// init loads the configuration and applies the command line overrides.
func (a *app) init(cmd *cobra.Command) error {
	if a.configPath != "" {
		cfg, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
	} else {
		a.cfg = config.Default()
		a.cfg.ApplyEnv()
	}
	if a.dialect != "" {
		a.cfg.Dialect = a.dialect
	}
	if a.dsn != "" {
		a.cfg.DSN = a.dsn
	}
	if a.debug {
		a.cfg.Log.Level = "debug"
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	logger, err := a.cfg.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

// open connects to the configured database.
func (a *app) open() (platform.Platform, error) {
	if a.cfg.Dialect == "" {
		return nil, fmt.Errorf("no dialect given; use --dialect or the configuration file")
	}
	if a.cfg.DSN == "" {
		return nil, fmt.Errorf("no data source given; use --dsn, %s or the configuration file", config.EnvDSN)
	}
	opts := a.cfg.Options(a.logger)
	if a.debug {
		opts = append(opts, platform.WithDebug())
	}
	if a.stats {
		opts = append(opts, platform.WithStats())
	}
	p, err := platform.Open(a.cfg.Dialect, a.cfg.DSN, opts...)
	if err != nil {
		return nil, err
	}
	a.opened = p
	return p, nil
}

// report prints the statement counters of the command when --stats is set.
func (a *app) report(cmd *cobra.Command) {
	if !a.stats || a.opened == nil {
		return
	}
	if s, ok := platform.Stats(a.opened); ok {
		fmt.Fprintf(cmd.ErrOrStderr(), "statements: %s\n", s)
	}
}
