package record

import (
	"testing"
	"time"

	"github.com/Chatblanccc/PersonnelManagement/internal/approval"
	"github.com/Chatblanccc/PersonnelManagement/internal/errs"
	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"github.com/Chatblanccc/PersonnelManagement/internal/stage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) (*gorm.DB, *stage.Catalog) {
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
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	for _, st := range stage.Defaults() {
		st := st
		if err := db.Create(&st).Error; err != nil {
			t.Fatalf("seed stage: %v", err)
		}
	}
	cat, err := stage.Load(db)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return db, cat
}

func TestCreate_GeneratesWorkflow(t *testing.T) {
	db, cat := testDB(t)
	entry := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	rec, tasks, err := Create(db, cat, CreateOpts{SubjectName: " Chen Jie ", SubjectGroup: "Math", EntryDate: &entry}, approval.GenerateOpts{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID == "" {
		t.Error("ID not generated")
	}
	if rec.SubjectName != "Chen Jie" {
		t.Errorf("SubjectName = %q, want trimmed", rec.SubjectName)
	}
	if len(tasks) != 6 {
		t.Errorf("generated %d tasks, want 6", len(tasks))
	}
	if rec.ApprovalStatus != string(approval.OverallPending) {
		t.Errorf("ApprovalStatus = %q, want pending", rec.ApprovalStatus)
	}

	stored, err := Get(db, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.EntryDate == nil || !stored.EntryDate.Equal(entry) {
		t.Errorf("EntryDate = %v, want %v", stored.EntryDate, entry)
	}
}

func TestCreate_InProgressIsRecomputed(t *testing.T) {
	db, cat := testDB(t)
	rec, tasks, err := Create(db, cat, CreateOpts{SubjectName: "Chen Jie", ApprovalStatus: "in_progress"}, approval.GenerateOpts{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(tasks) != 6 {
		t.Errorf("generated %d tasks, want 6", len(tasks))
	}
	// Freshly generated tasks are all pending, so the derived state is too.
	if rec.ApprovalStatus != string(approval.OverallPending) {
		t.Errorf("ApprovalStatus = %q, want pending", rec.ApprovalStatus)
	}
}

func TestCreate_ApprovedSkipsWorkflow(t *testing.T) {
	db, cat := testDB(t)
	rec, tasks, err := Create(db, cat, CreateOpts{SubjectName: "Chen Jie", ApprovalStatus: "approved"}, approval.GenerateOpts{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("generated %d tasks, want 0", len(tasks))
	}
	if rec.ApprovalCompletedAt == nil {
		t.Error("ApprovalCompletedAt not set for approved record")
	}
}

func TestCreate_Validation(t *testing.T) {
	db, cat := testDB(t)
	tests := []struct {
		name string
		opts CreateOpts
	}{
		{"missing name", CreateOpts{SubjectName: "  "}},
		{"bad status", CreateOpts{SubjectName: "Chen Jie", ApprovalStatus: "done"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Create(db, cat, tt.opts, approval.GenerateOpts{})
			if !errs.Is(err, errs.KindValidation) {
				t.Errorf("err = %v, want Validation", err)
			}
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	db, _ := testDB(t)
	if _, err := Get(db, "missing"); !errs.Is(err, errs.KindNotFound) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestDelete_KeepsTasks(t *testing.T) {
	db, cat := testDB(t)
	rec, _, err := Create(db, cat, CreateOpts{ID: "r-1", SubjectName: "Chen Jie"}, approval.GenerateOpts{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := Delete(db, rec.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := Get(db, rec.ID); !errs.Is(err, errs.KindNotFound) {
		t.Errorf("Get after delete: err = %v, want NotFound", err)
	}

	var detached int64
	db.Model(&models.ApprovalTask{}).Where("record_id IS NULL AND subject_name = ?", "Chen Jie").Count(&detached)
	if detached != 6 {
		t.Errorf("detached tasks = %d, want 6", detached)
	}
	if err := Delete(db, rec.ID); !errs.Is(err, errs.KindNotFound) {
		t.Errorf("second Delete: err = %v, want NotFound", err)
	}
}
