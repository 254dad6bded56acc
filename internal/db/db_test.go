package db

import (
	"strings"
	"testing"

	"github.com/Chatblanccc/PersonnelManagement/internal/config"
	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := AutoMigrate(gormDB); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gormDB
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want []string
	}{
		{
			name: "default local",
			cfg:  config.DatabaseConfig{Host: "127.0.0.1", Port: 3306, User: "root", Name: "personnel_management"},
			want: []string{"root@tcp(127.0.0.1:3306)/personnel_management", "parseTime=true"},
		},
		{
			name: "with password",
			cfg:  config.DatabaseConfig{Host: "db.internal", Port: 3307, User: "hr", Password: "pw", Name: "hr"},
			want: []string{"hr:pw@tcp(db.internal:3307)/hr", "parseTime=true"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DSN(tt.cfg)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("DSN() = %q, want to contain %q", got, w)
				}
			}
		})
	}
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "oracle"})
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if !strings.Contains(err.Error(), "unsupported driver") {
		t.Errorf("error = %q, want unsupported driver", err.Error())
	}
}

func TestAllModels_Count(t *testing.T) {
	if got := len(AllModels()); got != 9 {
		t.Errorf("len(AllModels()) = %d, want 9", got)
	}
}

func TestAutoMigrate_CreatesTables(t *testing.T) {
	gormDB := openTestDB(t)
	for _, m := range AllModels() {
		if !gormDB.Migrator().HasTable(m) {
			t.Errorf("table for %T not created", m)
		}
	}
}

func TestSeedStages_Idempotent(t *testing.T) {
	gormDB := openTestDB(t)
	stages := []models.Stage{
		{Key: "entry", Name: "Entry", OrderIndex: 1, SLADays: 2, IsActive: true, Checklist: []string{"ID"}},
		{Key: "archive", Name: "Archive", OrderIndex: 2, SLADays: 7, IsActive: false},
	}

	n, err := SeedStages(gormDB, stages)
	if err != nil {
		t.Fatalf("SeedStages: %v", err)
	}
	if n != 2 {
		t.Errorf("first seed inserted %d, want 2", n)
	}

	// An administrative edit must survive a re-seed.
	if err := gormDB.Model(&models.Stage{}).Where("stage_key = ?", "entry").Update("sla_days", 9).Error; err != nil {
		t.Fatalf("update: %v", err)
	}

	n, err = SeedStages(gormDB, stages)
	if err != nil {
		t.Fatalf("SeedStages again: %v", err)
	}
	if n != 0 {
		t.Errorf("second seed inserted %d, want 0", n)
	}

	var entry models.Stage
	if err := gormDB.First(&entry, "stage_key = ?", "entry").Error; err != nil {
		t.Fatalf("load entry: %v", err)
	}
	if entry.SLADays != 9 {
		t.Errorf("entry.SLADays = %d, want 9 (preserved)", entry.SLADays)
	}
	if len(entry.Checklist) != 1 || entry.Checklist[0] != "ID" {
		t.Errorf("entry.Checklist = %v, want [ID]", entry.Checklist)
	}

	var archive models.Stage
	if err := gormDB.First(&archive, "stage_key = ?", "archive").Error; err != nil {
		t.Fatalf("load archive: %v", err)
	}
	if archive.IsActive {
		t.Error("archive.IsActive = true, want false as seeded")
	}
}
