package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pegfall/internal/db"
	"pegfall/internal/migrations"
)

var migrateApply bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "List embedded migrations, or apply them with --apply",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateApply, "apply", false, "apply migrations to DATABASE_URL")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if !migrateApply {
		all, err := migrations.All()
		if err != nil {
			return err
		}
		for _, m := range all {
			fmt.Fprintln(out, m.Name)
		}
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL not set")
	}
	pool, err := db.Connect(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	applied, err := db.Migrate(cmd.Context(), pool)
	for _, name := range applied {
		fmt.Fprintf(out, "applied %s\n", name)
	}
	return err
}
