package models

import "time"

// StaffMember is one entry in the live staff roster, assembled from a
// Discord guild member and any profile details stored locally.
type StaffMember struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	Name            string     `json:"name"`
	Nickname        NullString `json:"nickname"`
	Rank            string     `json:"rank"`
	RankLevel       int        `json:"-"`
	Status          string     `json:"status"`
	AvatarURL       NullString `json:"avatarUrl"`
	PlayfabID       NullString `json:"playfabID"`
	Steam64ID       NullString `json:"steam64ID"`
	RecruitmentDate NullTime   `json:"recruitmentDate"`
	Notes           NullString `json:"notes"`
}

// PastStaff records a member who left the staff team. The same Discord
// id may appear more than once when a member is retired, reinstated and
// later retired again.
type PastStaff struct {
	RecordID        int64      `json:"recordId" db:"id"`
	DiscordID       string     `json:"id" db:"discord_id"`
	Username        string     `json:"username" db:"username"`
	Name            string     `json:"name" db:"display_name"`
	Rank            string     `json:"rank" db:"rank"`
	PlayfabID       NullString `json:"playfabID" db:"playfab_id"`
	RecruitmentDate NullTime   `json:"recruitmentDate" db:"recruitment_date"`
	RemovalDate     time.Time  `json:"removalDate" db:"removal_date"`
	RemovalReason   NullString `json:"removalReason" db:"removal_reason"`
	CreatedAt       time.Time  `json:"-" db:"created_at"`
}

// StaffProfile holds the locally editable fields of a staff member,
// keyed by Discord id. The roster merges these over live guild data.
type StaffProfile struct {
	DiscordID       string     `json:"discord_id" db:"discord_id"`
	PlayfabID       NullString `json:"playfab_id" db:"playfab_id"`
	Steam64ID       NullString `json:"steam64_id" db:"steam64_id"`
	RecruitmentDate NullTime   `json:"recruitment_date" db:"recruitment_date"`
	Notes           NullString `json:"notes" db:"notes"`
	Status          string     `json:"status" db:"staff_status"`
}

// Duty statuses a roster entry can carry. Distinct from the account
// status that controls whether a login is allowed.
const (
	StaffStatusActive   = "Active"
	StaffStatusExempt   = "Exempt"
	StaffStatusInactive = "Inactive"
	StaffStatusOnLeave  = "On Leave"
)

// ValidStaffStatus reports whether s is one of the roster duty
// statuses.
func ValidStaffStatus(s string) bool {
	switch s {
	case StaffStatusActive, StaffStatusExempt, StaffStatusInactive, StaffStatusOnLeave:
		return true
	}
	return false
}
