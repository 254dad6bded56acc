package main

import (
	"fmt"

	"github.com/Chatblanccc/PersonnelManagement/internal/db"
	"github.com/Chatblanccc/PersonnelManagement/internal/stage"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}
	cmd.AddCommand(newDBInitCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the database",
		Long:  "Migrates all tables and seeds the default approval stages. Existing stages are left untouched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}
	addConfigFlag(cmd, &configPath)
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to %s database\n", cfg.Database.Driver)

	n, err := prepareStore(gormDB)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))
	fmt.Fprintf(out, "Seeded %d default stages\n", n)

	fmt.Fprintln(out, "\nDatabase initialized successfully.")
	return nil
}

// prepareStore migrates every table and seeds the default stages that are
// missing, returning how many were seeded. Existing stages are left as
// they are. Both serve and db init run it.
func prepareStore(gormDB *gorm.DB) (int, error) {
	if err := db.AutoMigrate(gormDB); err != nil {
		return 0, err
	}
	return db.SeedStages(gormDB, stage.Defaults())
}
