package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSnowflake(t *testing.T) {
	v := NewIDValidator()

	tests := []struct {
		name        string
		input       string
		expected    string
		expectError error
	}{
		{
			name:     "valid 18 digit snowflake",
			input:    "765079181666156545",
			expected: "765079181666156545",
		},
		{
			name:     "valid 19 digit snowflake",
			input:    "1394520034700693534",
			expected: "1394520034700693534",
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "  765079181666156545  ",
			expected: "765079181666156545",
		},
		{
			name:        "empty",
			input:       "",
			expectError: ErrEmptyID,
		},
		{
			name:        "too short",
			input:       "12345",
			expectError: ErrInvalidSnowflake,
		},
		{
			name:        "letters",
			input:       "76507918166615654x",
			expectError: ErrInvalidSnowflake,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := v.ValidateSnowflake(tt.input)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				assert.Empty(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestValidateSteam64(t *testing.T) {
	v := NewIDValidator()

	result, err := v.ValidateSteam64("76561198000000000")
	require.NoError(t, err)
	assert.Equal(t, "76561198000000000", result)

	// Optional field, empty passes through
	result, err = v.ValidateSteam64("")
	require.NoError(t, err)
	assert.Empty(t, result)

	_, err = v.ValidateSteam64("12341198000000000")
	assert.ErrorIs(t, err, ErrInvalidSteam64)

	_, err = v.ValidateSteam64("7656119800000")
	assert.ErrorIs(t, err, ErrInvalidSteam64)
}

func TestValidatePlayfab(t *testing.T) {
	v := NewIDValidator()

	result, err := v.ValidatePlayfab("A1B2C3D4E5F60708")
	require.NoError(t, err)
	assert.Equal(t, "A1B2C3D4E5F60708", result)

	// Lowercase input is upcased
	result, err = v.ValidatePlayfab("a1b2c3d4e5f60708")
	require.NoError(t, err)
	assert.Equal(t, "A1B2C3D4E5F60708", result)

	// Optional field, empty passes through
	result, err = v.ValidatePlayfab("")
	require.NoError(t, err)
	assert.Empty(t, result)

	_, err = v.ValidatePlayfab("nothex!")
	assert.ErrorIs(t, err, ErrInvalidPlayfab)
}
