package models

import (
	"fmt"
	"strings"
	"time"
)

// User is an account stored by the stub backend.
type User struct {
	id          string
	sequence    int
	displayName string
	avatarURL   string
	developer   bool
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

var _ Model = (*User)(nil)

// NewUser creates a [User] stamped with the current time. The ID is assigned on insert.
func NewUser(sequence int, displayName, avatarURL string, developer bool) *User {
	now := time.Now()
	return &User{
		sequence:    sequence,
		displayName: displayName,
		avatarURL:   avatarURL,
		developer:   developer,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (u *User) ID() string            { return u.id }
func (u *User) Sequence() int         { return u.sequence }
func (u *User) DisplayName() string   { return u.displayName }
func (u *User) AvatarURL() string     { return u.avatarURL }
func (u *User) Developer() bool       { return u.developer }
func (u *User) CreatedAt() time.Time  { return u.createdAt }
func (u *User) UpdatedAt() time.Time  { return u.updatedAt }
func (u *User) DeletedAt() *time.Time { return u.deletedAt }

func (u *User) SetID(id string)            { u.id = id }
func (u *User) SetSequence(seq int)        { u.sequence = seq }
func (u *User) SetDisplayName(name string) { u.displayName = name }
func (u *User) SetAvatarURL(url string)    { u.avatarURL = url }
func (u *User) SetCreatedAt(t time.Time)   { u.createdAt = t }
func (u *User) SetUpdatedAt(t time.Time)   { u.updatedAt = t }
func (u *User) SetDeletedAt(t *time.Time)  { u.deletedAt = t }

// Validate requires an ID and a non-blank display name.
func (u *User) Validate() error {
	if u.id == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(u.displayName) == "" {
		return fmt.Errorf("display name is required")
	}
	return nil
}

// Profile projects the user onto its wire representation.
func (u *User) Profile() Profile {
	return Profile{SubjectID: u.id, DisplayName: u.displayName, AvatarURL: u.avatarURL}
}

// Play is one stored listening event. Pending plays have been "heard" upstream
// but not yet pulled by an incremental fetch.
type Play struct {
	UserID   string
	Track    Track
	Genres   []string
	PlayedAt time.Time
	Pending  bool
}
