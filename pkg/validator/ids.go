package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyID indicates the id is empty
	ErrEmptyID = errors.New("id cannot be empty")

	// ErrInvalidSnowflake indicates the value is not a Discord snowflake
	ErrInvalidSnowflake = errors.New("id must be a 17-20 digit Discord snowflake")

	// ErrInvalidSteam64 indicates the value is not a Steam64 id
	ErrInvalidSteam64 = errors.New("id must be a 17 digit Steam64 id starting with 7656")

	// ErrInvalidPlayfab indicates the value is not a PlayFab id
	ErrInvalidPlayfab = errors.New("id must be a 14-16 character hexadecimal PlayFab id")
)

// snowflakeRegex matches Discord snowflake ids
var snowflakeRegex = regexp.MustCompile(`^\d{17,20}$`)

// steam64Regex matches Steam64 ids
var steam64Regex = regexp.MustCompile(`^7656\d{13}$`)

// playfabRegex matches PlayFab entity ids
var playfabRegex = regexp.MustCompile(`^[0-9A-F]{14,16}$`)

// IDValidator validates the external game and platform ids attached to
// staff profiles
type IDValidator struct{}

// NewIDValidator creates a new id validator instance
func NewIDValidator() *IDValidator {
	return &IDValidator{}
}

// Sanitize trims surrounding whitespace from an id
func (v *IDValidator) Sanitize(id string) string {
	return strings.TrimSpace(id)
}

// ValidateSnowflake validates a Discord snowflake id.
// Returns the sanitized id and an error when invalid.
func (v *IDValidator) ValidateSnowflake(id string) (string, error) {
	if id == "" {
		return "", ErrEmptyID
	}

	sanitized := v.Sanitize(id)
	if !snowflakeRegex.MatchString(sanitized) {
		return "", ErrInvalidSnowflake
	}

	return sanitized, nil
}

// ValidateSteam64 validates a Steam64 id. Empty input is allowed since
// the field is optional on staff profiles.
func (v *IDValidator) ValidateSteam64(id string) (string, error) {
	sanitized := v.Sanitize(id)
	if sanitized == "" {
		return "", nil
	}

	if !steam64Regex.MatchString(sanitized) {
		return "", ErrInvalidSteam64
	}

	return sanitized, nil
}

// ValidatePlayfab validates a PlayFab id. Empty input is allowed since
// the field is optional on staff profiles. Lowercase hex is accepted
// and upcased.
func (v *IDValidator) ValidatePlayfab(id string) (string, error) {
	sanitized := strings.ToUpper(v.Sanitize(id))
	if sanitized == "" {
		return "", nil
	}

	if !playfabRegex.MatchString(sanitized) {
		return "", ErrInvalidPlayfab
	}

	return sanitized, nil
}
