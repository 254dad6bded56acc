package approval

import (
	"testing"
	"time"

	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"github.com/Chatblanccc/PersonnelManagement/internal/stage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB creates an in-memory SQLite database with all workflow tables.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&models.Stage{},
		&models.ApprovalTask{},
		&models.TaskAssignee{},
		&models.CheckItem{},
		&models.HistoryEntry{},
		&models.Record{},
		&models.User{},
		&models.ReminderLog{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// setNow pins the package clock for the duration of the test.
func setNow(t *testing.T, tm time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return tm }
	t.Cleanup(func() { now = prev })
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

// fixture is a three-stage workflow (a=1, b=2, c=3) with directory users.
type fixture struct {
	db  *gorm.DB
	cat *stage.Catalog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testDB(t)
	users := []models.User{
		{ID: "u-1", Username: "zwei", FullName: "Zhang Wei", IsActive: true},
		{ID: "u-2", Username: "lina", FullName: "Li Na", IsActive: true},
		{ID: "u-3", Username: "wfang", FullName: "Wang Fang", IsActive: true},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	stages := []models.Stage{
		{Key: "a", Name: "Stage A", Description: "first", OrderIndex: 1, OwnerID: strPtr("u-1"), AssistantIDs: []string{"u-2"}, SLADays: 2, Checklist: []string{"a1", "a2"}, IsActive: true},
		{Key: "b", Name: "Stage B", Description: "second", OrderIndex: 2, OwnerID: strPtr("u-2"), SLADays: 3, Checklist: []string{"b1"}, IsActive: true},
		{Key: "c", Name: "Stage C", Description: "third", OrderIndex: 3, OwnerID: strPtr("u-3"), SLADays: 0, IsActive: true},
		{Key: "x", Name: "Retired", OrderIndex: 9, IsActive: false},
	}
	return &fixture{db: db, cat: seedCatalog(t, db, stages)}
}

func seedCatalog(t *testing.T, db *gorm.DB, stages []models.Stage) *stage.Catalog {
	t.Helper()
	for i := range stages {
		if err := db.Create(&stages[i]).Error; err != nil {
			t.Fatalf("seed stage: %v", err)
		}
	}
	cat, err := stage.Load(db)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return cat
}

// newRecord creates a record and generates its tasks, returned by stage key.
func (f *fixture) newRecord(t *testing.T, id, name, group string) map[string]models.ApprovalTask {
	t.Helper()
	entry := day(2026, 3, 1)
	rec := models.Record{ID: id, SubjectName: name, SubjectGroup: group, EntryDate: &entry, ApprovalStatus: "pending"}
	if err := f.db.Create(&rec).Error; err != nil {
		t.Fatalf("create record: %v", err)
	}
	tasks, err := Generate(f.db, f.cat, RecordInfo{ID: id, SubjectName: name, SubjectGroup: group, EntryDate: &entry}, GenerateOpts{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	byStage := make(map[string]models.ApprovalTask, len(tasks))
	for _, task := range tasks {
		byStage[task.StageKey] = task
	}
	return byStage
}

func (f *fixture) record(t *testing.T, id string) models.Record {
	t.Helper()
	var rec models.Record
	if err := f.db.First(&rec, "id = ?", id).Error; err != nil {
		t.Fatalf("load record %s: %v", id, err)
	}
	return rec
}

func (f *fixture) task(t *testing.T, id string) models.ApprovalTask {
	t.Helper()
	task, err := Get(f.db, id)
	if err != nil {
		t.Fatalf("Get(%s): %v", id, err)
	}
	return *task
}

var admin = Actor{Name: "Admin", Elevated: true}
