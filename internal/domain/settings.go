package domain

import (
	"slices"
	"strings"
)

// Settings is the trip-wide configuration document: who may edit, and the
// travel window used to label the days.
type Settings struct {
	AdminEmails []string `json:"adminEmails"`
	StartDate   string   `json:"startDate,omitempty"` // "2006-01-02"
	EndDate     string   `json:"endDate,omitempty"`   // "2006-01-02"
}

// Clone returns a deep copy of the settings.
func (s Settings) Clone() Settings {
	s.AdminEmails = slices.Clone(s.AdminEmails)
	return s
}

// IsAdmin reports whether email is on the admin list. Comparison ignores
// case and surrounding whitespace; an empty email is never an admin.
func (s Settings) IsAdmin(email string) bool {
	email = NormalizeEmail(email)
	if email == "" {
		return false
	}
	return slices.ContainsFunc(s.AdminEmails, func(e string) bool {
		return NormalizeEmail(e) == email
	})
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Checklist is the packing/booking checklist document.
type Checklist struct {
	Items []string `json:"items"`
}

// Clone returns a deep copy of the checklist.
func (c Checklist) Clone() Checklist {
	c.Items = slices.Clone(c.Items)
	if c.Items == nil {
		c.Items = []string{}
	}
	return c
}

// User is the signed-in principal as reported by the identity provider.
type User struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// DisplayName returns the name used to stamp modifications.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if u.Email != "" {
		return u.Email
	}
	return "Anonymous"
}
