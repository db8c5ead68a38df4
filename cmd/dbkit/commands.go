package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/dbkit"
	"github.com/syssam/dbkit/config"
	"github.com/syssam/dbkit/dialect/sql/mysql"
	"github.com/syssam/dbkit/dialect/sql/schema"
	"github.com/syssam/dbkit/platform"
)

// describeLimit bounds the tables described concurrently when the pool
// size is not configured.
const describeLimit = 4

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the database engine version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.open()
			if err != nil {
				return err
			}
			defer p.Close()
			v, err := p.Version(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", p.Capabilities().Name, v)
			return nil
		},
	}
}

func (a *app) tablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables and views of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.open()
			if err != nil {
				return err
			}
			defer p.Close()
			tables, err := p.GetAllTables(cmd.Context())
			if err != nil {
				return err
			}
			for _, t := range tables {
				if t.IsView {
					fmt.Fprintf(cmd.OutOrStdout(), "%s (view)\n", t.QualifiedName())
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), t.QualifiedName())
			}
			return nil
		},
	}
}

func (a *app) describeCmd() *cobra.Command {
	var (
		schemaName string
		all        bool
		format     string
	)
	cmd := &cobra.Command{
		Use:   "describe [table...]",
		Short: "Describe tables as YAML or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return fmt.Errorf("name the tables to describe or use --all")
			}
			p, err := a.open()
			if err != nil {
				return err
			}
			defer p.Close()
			ctx := cmd.Context()
			names := make([]schema.TableName, 0, len(args))
			for _, name := range args {
				names = append(names, schema.TableName{Schema: schemaName, Name: name})
			}
			if all {
				if names, err = p.GetAllTables(ctx); err != nil {
					return err
				}
			}
			tables, err := a.describe(ctx, p, names)
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), format, tables)
		},
	}
	cmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Schema of the named tables")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Describe every table and view")
	cmd.Flags().StringVarP(&format, "format", "f", formatYAML, "Output format: yaml or json")
	return cmd
}

// describe reads the tables concurrently, keeping the order of names.
func (a *app) describe(ctx context.Context, p platform.Platform, names []schema.TableName) ([]*schema.Table, error) {
	tables := make([]*schema.Table, len(names))
	g, ctx := errgroup.WithContext(ctx)
	limit := a.cfg.PoolSize
	if limit <= 0 {
		limit = describeLimit
	}
	g.SetLimit(limit)
	for i, n := range names {
		g.Go(func() error {
			t, err := p.GetTableMetadata(ctx, n.Schema, n.Name, n.IsView)
			if err != nil {
				return fmt.Errorf("describe %s: %w", n.QualifiedName(), err)
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

func (a *app) createCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "create <tables.toml>",
		Short: "Create the tables of a definition file",
		Long: `Create reads table definitions from a TOML file, validates them and
creates the tables that do not exist yet in a single transaction. Tables
that already exist are compared with their definition and left unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := config.LoadTables(args[0])
			if err != nil {
				return err
			}
			result := schema.ValidateSchema(tables)
			for _, w := range result.Warnings {
				a.logger.Warn("table definition", "warning", w.Error())
			}
			if result.HasErrors() {
				return fmt.Errorf("invalid table definitions:\n%s", result)
			}
			p, err := a.open()
			if err != nil {
				return err
			}
			defer p.Close()
			return a.create(cmd, p, tables, dryRun)
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Print the statements without executing them")
	return cmd
}

func (a *app) create(cmd *cobra.Command, p platform.Platform, tables []*schema.Table, dryRun bool) error {
	ctx := cmd.Context()
	var missing []*schema.Table
	for _, t := range tables {
		current, err := p.GetTableMetadata(ctx, t.Schema, t.Name, false)
		switch {
		case dbkit.IsNotFound(err):
			missing = append(missing, t)
		case err != nil:
			return err
		default:
			diff := schema.ValidateDiff([]*schema.Table{current}, []*schema.Table{t})
			if diff.HasErrors() || diff.HasWarnings() {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s exists and differs from its definition:\n%s", t.QualifiedName(), diff)
			}
			a.logger.Info("table exists", "table", t.QualifiedName())
		}
	}
	if dryRun {
		for _, t := range missing {
			f, err := p.BuildCreateTable(t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s;\n", f)
			d, _ := schema.DialectOf(p.Capabilities().Name)
			for _, c := range schema.BuildComments(t, d) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s;\n", c)
			}
		}
		return nil
	}
	err := platform.WithTx(ctx, p, func(tx platform.Tx) error {
		for _, t := range missing {
			if err := tx.CreateTable(ctx, t); err != nil {
				return fmt.Errorf("create %s: %w", t.QualifiedName(), err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, t := range missing {
		fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", t.QualifiedName())
	}
	return nil
}

func (a *app) parseCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "parse <dump.sql>",
		Short: "Read the CREATE TABLE statements of a MySQL dump",
		Args:  cobra.ExactArgs(1),
		// parse works offline.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			tables, err := mysql.ParseCreateTables(string(data))
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), format, tables)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatYAML, "Output format: yaml or json")
	return cmd
}

func (a *app) dropCmd() *cobra.Command {
	var schemaName string
	cmd := &cobra.Command{
		Use:   "drop <table>",
		Short: "Drop a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.open()
			if err != nil {
				return err
			}
			defer p.Close()
			if err := p.DropTable(cmd.Context(), schemaName, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dropped %s\n", schema.TableName{Schema: schemaName, Name: args[0]}.QualifiedName())
			return nil
		},
	}
	cmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Schema of the table")
	return cmd
}
