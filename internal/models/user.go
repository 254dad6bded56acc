package models

// User is the directory read-model: identities that can own stages, act on
// tasks and receive notifications.
type User struct {
	ID          string   `gorm:"primaryKey;size:36"`
	Username    string   `gorm:"size:64;not null;uniqueIndex"`
	FullName    string   `gorm:"size:100;index"`
	Email       string   `gorm:"size:128"`
	IsActive    bool     `gorm:"not null"`
	IsSuperuser bool     `gorm:"not null"`
	Permissions []string `gorm:"type:text;serializer:json"`
}

// DisplayName is the identity string tasks carry for this user.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
