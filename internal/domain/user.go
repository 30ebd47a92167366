package domain

import "time"

// Role names as stored in the user_roles table.
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// AccountProfile is the application-level identity joined to an auth identity.
// AvatarURL is already resolved to a public URL.
type AccountProfile struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	RoleName    string `json:"roleName"`
}

// IsAdmin reports whether the profile carries the admin role.
func (p *AccountProfile) IsAdmin() bool {
	return p.RoleName == RoleAdmin
}

// IsStudent reports whether the profile carries the student role.
func (p *AccountProfile) IsStudent() bool {
	return p.RoleName == RoleStudent
}

// FallbackProfile is used whenever the profile lookup cannot produce a usable row.
func FallbackProfile(id, email string) AccountProfile {
	return AccountProfile{ID: id, Email: email, RoleName: RoleStudent}
}

// Credential is an email/password identity held by the auth provider.
type Credential struct {
	ID           string    `bson:"id" json:"id"`
	Email        string    `bson:"email" json:"email"`    // unique
	PasswordHash string    `bson:"passwordHash" json:"-"` // never exposed
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}
