// Package directory is the read-model of the external user directory: it
// resolves identities for task assignment, permission checks and
// notification fan-out.
package directory

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Permission codes understood by the workflow.
const (
	PermAudit    = "contracts.audit"
	PermSettings = "settings.manage"
	PermAll      = "*"
)

// Entry is one user in a directory snapshot file.
type Entry struct {
	ID          string   `yaml:"id"`
	Username    string   `yaml:"username"`
	FullName    string   `yaml:"full_name"`
	Email       string   `yaml:"email"`
	Active      *bool    `yaml:"active"`
	Superuser   bool     `yaml:"superuser"`
	Permissions []string `yaml:"permissions"`
}

type snapshot struct {
	Users []Entry `yaml:"users"`
}

// LoadFile reads a YAML directory snapshot ("users:" list).
func LoadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("directory: read %s: %w", path, err)
	}
	var s snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("directory: parse %s: %w", path, err)
	}
	return s.Users, nil
}

// Sync upserts entries keyed by username and returns how many were written.
func Sync(db *gorm.DB, entries []Entry) (int, error) {
	written := 0
	for i, e := range entries {
		if e.Username == "" {
			return written, fmt.Errorf("directory: users[%d].username is required", i)
		}
		id := e.ID
		if id == "" {
			id = uuid.NewString()
		}
		active := true
		if e.Active != nil {
			active = *e.Active
		}
		u := models.User{
			ID:          id,
			Username:    e.Username,
			FullName:    e.FullName,
			Email:       e.Email,
			IsActive:    active,
			IsSuperuser: e.Superuser,
			Permissions: e.Permissions,
		}
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			DoUpdates: clause.AssignmentColumns([]string{"full_name", "email", "is_active", "is_superuser", "permissions"}),
		}).Create(&u)
		if result.Error != nil {
			return written, fmt.Errorf("directory: sync %q: %w", e.Username, result.Error)
		}
		written++
	}
	return written, nil
}

// Names maps user IDs to display names. Unknown IDs are absent from the map.
func Names(db *gorm.DB, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var users []models.User
	if err := db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("directory: lookup names: %w", err)
	}
	for i := range users {
		names[users[i].ID] = users[i].DisplayName()
	}
	return names, nil
}

// Resolve finds the notifiable user for a display identity by exact match on
// full name, then on login name. It returns nil without error when nothing
// matches.
func Resolve(db *gorm.DB, identity string) (*models.User, error) {
	if identity == "" {
		return nil, nil
	}
	for _, column := range []string{"full_name", "username"} {
		var u models.User
		err := db.Where(column+" = ?", identity).Order("username ASC").First(&u).Error
		if err == nil {
			return &u, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("directory: resolve %q: %w", identity, err)
		}
	}
	return nil, nil
}

// HasPermission reports whether u holds perm directly or through superuser.
func HasPermission(u *models.User, perm string) bool {
	if u.IsSuperuser {
		return true
	}
	for _, p := range u.Permissions {
		if p == perm || p == PermAll {
			return true
		}
	}
	return false
}

// Assignable returns active users eligible to own or assist a stage: those
// holding the audit or settings permission, sorted by display name.
func Assignable(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.Where("is_active = ?", true).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("directory: list assignable: %w", err)
	}
	out := make([]models.User, 0, len(users))
	for i := range users {
		u := &users[i]
		if HasPermission(u, PermAudit) || HasPermission(u, PermSettings) {
			out = append(out, *u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayName() < out[j].DisplayName()
	})
	return out, nil
}
