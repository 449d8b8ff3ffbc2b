package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// NullString wraps sql.NullString to provide proper JSON marshaling
type NullString struct {
	sql.NullString
}

// MarshalJSON implements json.Marshaler
func (ns NullString) MarshalJSON() ([]byte, error) {
	if ns.Valid {
		return json.Marshal(ns.String)
	}
	return json.Marshal(nil)
}

// UnmarshalJSON implements json.Unmarshaler
func (ns *NullString) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s != nil {
		ns.Valid = true
		ns.String = *s
	} else {
		ns.Valid = false
	}
	return nil
}

// NullTime wraps sql.NullTime to provide proper JSON marshaling
type NullTime struct {
	sql.NullTime
}

// MarshalJSON implements json.Marshaler
func (nt NullTime) MarshalJSON() ([]byte, error) {
	if nt.Valid {
		return json.Marshal(nt.Time)
	}
	return json.Marshal(nil)
}

// UnmarshalJSON implements json.Unmarshaler
func (nt *NullTime) UnmarshalJSON(data []byte) error {
	var t *time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	if t != nil {
		nt.Valid = true
		nt.Time = *t
	} else {
		nt.Valid = false
	}
	return nil
}

// NewNullString returns a valid NullString holding s.
func NewNullString(s string) NullString {
	return NullString{sql.NullString{String: s, Valid: true}}
}

// NewNullTime returns a valid NullTime holding t.
func NewNullTime(t time.Time) NullTime {
	return NullTime{sql.NullTime{Time: t, Valid: true}}
}

// User represents a site account. Accounts created through Discord login
// carry a discord_id and no password hash; locally registered accounts
// carry a password hash and may later be linked to a Discord identity.
type User struct {
	ID              int64      `json:"id" db:"id"`
	Username        string     `json:"username" db:"username"`
	Email           string     `json:"email" db:"email"`
	PasswordHash    NullString `json:"-" db:"password_hash"`
	Role            string     `json:"role" db:"role"`
	DiscordID       NullString `json:"discord_id,omitempty" db:"discord_id"`
	AvatarURL       NullString `json:"avatar_url,omitempty" db:"avatar_url"`
	PlayfabID       NullString `json:"playfab_id,omitempty" db:"playfab_id"`
	Steam64ID       NullString `json:"steam64_id,omitempty" db:"steam64_id"`
	RecruitmentDate NullTime   `json:"recruitment_date,omitempty" db:"recruitment_date"`
	Notes           NullString `json:"notes,omitempty" db:"notes"`
	Status          string     `json:"status" db:"status"`
	LastLogin       NullTime   `json:"last_login,omitempty" db:"last_login"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// Roles a user account can hold.
const (
	RoleAdmin  = "admin"
	RoleStaff  = "staff"
	RoleMember = "member"
)

// IsAdmin reports whether the account holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PublicUser is the JSON shape returned to clients. It never includes
// credential material.
type PublicUser struct {
	ID              int64      `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	Role            string     `json:"role"`
	DiscordID       NullString `json:"discord_id"`
	AvatarURL       NullString `json:"avatar_url"`
	PlayfabID       NullString `json:"playfab_id"`
	Steam64ID       NullString `json:"steam64_id"`
	RecruitmentDate NullTime   `json:"recruitment_date"`
	Notes           NullString `json:"notes"`
	Status          string     `json:"status"`
	LastLogin       NullTime   `json:"last_login"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Public strips credential fields from a User.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		Role:            u.Role,
		DiscordID:       u.DiscordID,
		AvatarURL:       u.AvatarURL,
		PlayfabID:       u.PlayfabID,
		Steam64ID:       u.Steam64ID,
		RecruitmentDate: u.RecruitmentDate,
		Notes:           u.Notes,
		Status:          u.Status,
		LastLogin:       u.LastLogin,
		CreatedAt:       u.CreatedAt,
	}
}
