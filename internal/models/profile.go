package models

import "time"

// Role controls what a profile may moderate.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role may moderate other people's content.
func (r Role) IsStaff() bool {
	return r == RoleTeacher || r == RoleAdmin
}

// Theme values accepted in Preferences.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// View modes accepted in Preferences.
const (
	ViewModeGrid = "grid"
	ViewModeList = "list"
)

// CategoryAll selects every category in a preference.
const CategoryAll = "all"

// Preferences are the display settings remembered for a user.
type Preferences struct {
	Theme    string `gorm:"size:16" json:"theme"`
	Category string `gorm:"size:32" json:"category"`
	ViewMode string `gorm:"size:16" json:"view_mode"`
}

// DefaultPreferences returns the settings used when nothing is stored.
func DefaultPreferences() Preferences {
	return Preferences{Theme: ThemeSystem, Category: CategoryAll, ViewMode: ViewModeGrid}
}

// SocialLinks holds optional external profile URLs.
type SocialLinks struct {
	Github   string `gorm:"size:255" json:"github,omitempty"`
	Twitter  string `gorm:"size:255" json:"twitter,omitempty"`
	Linkedin string `gorm:"size:255" json:"linkedin,omitempty"`
}

// Profile is a registered user.
type Profile struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	Username     string      `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string      `gorm:"size:255;uniqueIndex;not null" json:"email,omitempty"`
	PasswordHash string      `gorm:"not null" json:"-"`
	Role         Role        `gorm:"type:varchar(16);not null;default:'student';index" json:"role"`
	FullName     string      `gorm:"size:120" json:"full_name,omitempty"`
	Bio          string      `gorm:"type:text" json:"bio,omitempty"`
	Location     string      `gorm:"size:120" json:"location,omitempty"`
	Website      string      `gorm:"size:255" json:"website,omitempty"`
	Social       SocialLinks `gorm:"embedded;embeddedPrefix:social_" json:"social_links"`
	Preferences  Preferences `gorm:"embedded;embeddedPrefix:pref_" json:"preferences"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Public returns a copy of the profile without private fields.
func (p *Profile) Public() *Profile {
	out := *p
	out.Email = ""
	out.Preferences = Preferences{}
	return &out
}

// AuthorSummary is the part of a profile shown next to posts and comments.
type AuthorSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	FullName string `json:"full_name,omitempty"`
}

func (AuthorSummary) TableName() string { return "profiles" }

// Summary returns the author view of p, or nil for a nil profile.
func (p *Profile) Summary() *AuthorSummary {
	if p == nil {
		return nil
	}
	return &AuthorSummary{ID: p.ID, Username: p.Username, Role: p.Role, FullName: p.FullName}
}
