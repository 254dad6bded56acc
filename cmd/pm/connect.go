package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/Chatblanccc/PersonnelManagement/internal/approval"
	"github.com/Chatblanccc/PersonnelManagement/internal/config"
	"github.com/Chatblanccc/PersonnelManagement/internal/db"
	"github.com/Chatblanccc/PersonnelManagement/internal/stage"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gormDB, nil
}

// connectWithCatalog connects and loads the stage catalog.
func connectWithCatalog(configPath string) (*config.Config, *gorm.DB, *stage.Catalog, error) {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	cat, err := stage.Load(gormDB)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, gormDB, cat, nil
}

func addConfigFlag(cmd *cobra.Command, configPath *string) {
	cmd.Flags().StringVarP(configPath, "config", "c", defaultConfigPath, "path to config file")
}

// addActorFlags registers --as and --elevated, the identity a command acts
// under.
func addActorFlags(cmd *cobra.Command, actor *approval.Actor) {
	cmd.Flags().StringVar(&actor.Name, "as", "", "acting identity (display name)")
	cmd.Flags().BoolVar(&actor.Elevated, "elevated", false, "act with the elevated override privilege")
}

const dateLayout = "2006-01-02"

func parseDateFlag(name, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("--%s must be YYYY-MM-DD: %w", name, err)
	}
	return &t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dateLayout)
}

// truncate shortens s to max runes, adding "..." if truncated.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
