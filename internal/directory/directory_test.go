package directory

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func createUsers(t *testing.T, db *gorm.DB, users ...models.User) {
	t.Helper()
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			t.Fatalf("create user %q: %v", users[i].Username, err)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.yaml")
	content := `
users:
  - username: zwei
    full_name: Zhang Wei
    permissions: [contracts.audit]
  - username: former
    active: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	entries, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	if entries[0].FullName != "Zhang Wei" || entries[0].Permissions[0] != PermAudit {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Active == nil || *entries[1].Active {
		t.Errorf("entries[1].Active = %v, want false", entries[1].Active)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("/nonexistent/users.yaml")
	if err == nil || !strings.Contains(err.Error(), "directory: read") {
		t.Errorf("err = %v, want directory: read", err)
	}
}

func TestSync_InsertThenUpdate(t *testing.T) {
	db := testDB(t)
	inactive := false

	n, err := Sync(db, []Entry{
		{ID: "u-1", Username: "zwei", FullName: "Zhang Wei", Permissions: []string{PermAudit}},
		{Username: "lina", FullName: "Li Na"},
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if n != 2 {
		t.Errorf("Sync wrote %d, want 2", n)
	}

	var lina models.User
	if err := db.First(&lina, "username = ?", "lina").Error; err != nil {
		t.Fatalf("load lina: %v", err)
	}
	if lina.ID == "" || !lina.IsActive {
		t.Errorf("lina = %+v, want generated ID and active", lina)
	}

	if _, err := Sync(db, []Entry{{ID: "other", Username: "zwei", FullName: "Zhang Wei (HR)", Active: &inactive}}); err != nil {
		t.Fatalf("Sync update: %v", err)
	}
	var zwei models.User
	if err := db.First(&zwei, "username = ?", "zwei").Error; err != nil {
		t.Fatalf("load zwei: %v", err)
	}
	if zwei.ID != "u-1" {
		t.Errorf("ID = %q, want u-1 (kept on update)", zwei.ID)
	}
	if zwei.FullName != "Zhang Wei (HR)" || zwei.IsActive {
		t.Errorf("zwei = %+v, want renamed and inactive", zwei)
	}

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 2 {
		t.Errorf("user count = %d, want 2", count)
	}
}

func TestSync_RequiresUsername(t *testing.T) {
	db := testDB(t)
	_, err := Sync(db, []Entry{{FullName: "Nobody"}})
	if err == nil || !strings.Contains(err.Error(), "username is required") {
		t.Errorf("err = %v, want username is required", err)
	}
}

func TestNames(t *testing.T) {
	db := testDB(t)
	createUsers(t, db,
		models.User{ID: "u-1", Username: "zwei", FullName: "Zhang Wei", IsActive: true},
		models.User{ID: "u-2", Username: "lina", IsActive: true},
	)
	names, err := Names(db, []string{"u-1", "u-2", "u-9"})
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	if names["u-1"] != "Zhang Wei" || names["u-2"] != "lina" {
		t.Errorf("Names = %v", names)
	}
	if _, ok := names["u-9"]; ok {
		t.Error("unknown id should be absent")
	}

	empty, err := Names(db, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("Names(nil) = %v, %v", empty, err)
	}
}

func TestResolve(t *testing.T) {
	db := testDB(t)
	createUsers(t, db,
		models.User{ID: "u-1", Username: "zwei", FullName: "Zhang Wei", IsActive: true},
		models.User{ID: "u-2", Username: "Li", FullName: "Li Na", IsActive: true},
	)

	tests := []struct {
		identity string
		wantID   string
	}{
		{"Zhang Wei", "u-1"},
		{"zwei", "u-1"},
		{"Li", "u-2"},
		{"Zhang", ""},
		{"", ""},
	}
	for _, tt := range tests {
		u, err := Resolve(db, tt.identity)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tt.identity, err)
		}
		got := ""
		if u != nil {
			got = u.ID
		}
		if got != tt.wantID {
			t.Errorf("Resolve(%q) = %q, want %q", tt.identity, got, tt.wantID)
		}
	}
}

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name string
		user models.User
		perm string
		want bool
	}{
		{"superuser", models.User{IsSuperuser: true}, PermSettings, true},
		{"direct", models.User{Permissions: []string{PermAudit}}, PermAudit, true},
		{"wildcard", models.User{Permissions: []string{PermAll}}, PermSettings, true},
		{"missing", models.User{Permissions: []string{"contracts.read"}}, PermAudit, false},
		{"no exact prefix match", models.User{Permissions: []string{"contracts.audit.view"}}, PermAudit, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasPermission(&tt.user, tt.perm); got != tt.want {
				t.Errorf("HasPermission = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAssignable(t *testing.T) {
	db := testDB(t)
	createUsers(t, db,
		models.User{ID: "u-1", Username: "zwei", FullName: "Zhang Wei", IsActive: true, Permissions: []string{PermAudit}},
		models.User{ID: "u-2", Username: "boss", IsActive: true, IsSuperuser: true},
		models.User{ID: "u-3", Username: "ops", FullName: "Ops", IsActive: true, Permissions: []string{PermSettings}},
		models.User{ID: "u-4", Username: "reader", IsActive: true, Permissions: []string{"contracts.read"}},
		models.User{ID: "u-5", Username: "left", IsActive: false, IsSuperuser: true},
	)
	users, err := Assignable(db)
	if err != nil {
		t.Fatalf("Assignable: %v", err)
	}
	var names []string
	for i := range users {
		names = append(names, users[i].DisplayName())
	}
	if got := strings.Join(names, ","); got != "Ops,Zhang Wei,boss" {
		t.Errorf("Assignable = %s, want Ops,Zhang Wei,boss", got)
	}
}
