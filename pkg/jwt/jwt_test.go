package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-testing-purposes"

func TestNewService(t *testing.T) {
	service := NewService(testSecret, 24*time.Hour)

	assert.NotNil(t, service)
	assert.Equal(t, testSecret, service.secret)
	assert.Equal(t, 24*time.Hour, service.tokenExpiry)
}

func TestGenerateToken(t *testing.T) {
	service := NewService(testSecret, 24*time.Hour)

	token, err := service.GenerateToken(42, "bigdan", "765079181666156500", "staff")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	// Validate the generated token
	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "bigdan", claims.Username)
	assert.Equal(t, "765079181666156500", claims.DiscordID)
	assert.Equal(t, "staff", claims.Role)
}

func TestGenerateToken_NoDiscordID(t *testing.T) {
	service := NewService(testSecret, 24*time.Hour)

	token, err := service.GenerateToken(7, "localadmin", "", "admin")
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Empty(t, claims.DiscordID)
	assert.Equal(t, "admin", claims.Role)
}

func TestValidateToken(t *testing.T) {
	service := NewService(testSecret, 24*time.Hour)

	token, err := service.GenerateToken(42, "bigdan", "", "staff")
	require.NoError(t, err)

	// Test valid token
	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)

	// Test invalid token
	_, err = service.ValidateToken("invalid.token.here")
	assert.Error(t, err)

	// Test token with wrong secret
	wrongService := NewService("wrong-secret", 24*time.Hour)
	_, err = wrongService.ValidateToken(token)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	// Create service with very short expiry
	service := NewService(testSecret, time.Millisecond)

	token, err := service.GenerateToken(42, "bigdan", "", "staff")
	require.NoError(t, err)

	// Wait for token to expire
	time.Sleep(10 * time.Millisecond)

	_, err = service.ValidateToken(token)
	assert.Error(t, err)
}

func TestExtractClaims(t *testing.T) {
	service := NewService(testSecret, 24*time.Hour)

	token, err := service.GenerateToken(42, "bigdan", "765079181666156500", "staff")
	require.NoError(t, err)

	claims, err := service.ExtractClaims(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "bigdan", claims.Username)
}

func TestIsTokenExpired(t *testing.T) {
	service := NewService(testSecret, 24*time.Hour)

	token, err := service.GenerateToken(42, "bigdan", "", "staff")
	require.NoError(t, err)

	assert.False(t, service.IsTokenExpired(token))

	// Test expired token
	expiredService := NewService(testSecret, -time.Hour)
	expiredToken, err := expiredService.GenerateToken(42, "bigdan", "", "staff")
	require.NoError(t, err)

	assert.True(t, service.IsTokenExpired(expiredToken))

	// Test invalid token
	assert.True(t, service.IsTokenExpired("invalid.token.here"))
}

func TestTokenSigningMethod(t *testing.T) {
	service := NewService(testSecret, 24*time.Hour)

	token, err := service.GenerateToken(42, "bigdan", "", "staff")
	require.NoError(t, err)

	// Parse to check method
	parsedToken, err := jwt.ParseWithClaims(token, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)

	_, ok := parsedToken.Method.(*jwt.SigningMethodHMAC)
	assert.True(t, ok, "Token should use HMAC signing method")
}

func TestTokenIssuerAndSubject(t *testing.T) {
	service := NewService(testSecret, 24*time.Hour)

	token, err := service.GenerateToken(42, "bigdan", "", "staff")
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "community-backend-auth", claims.Issuer)
	assert.Equal(t, "42", claims.Subject)
}

func TestConcurrentTokenGeneration(t *testing.T) {
	service := NewService(testSecret, 24*time.Hour)

	done := make(chan bool)
	errors := make(chan error, 100)

	// Generate 100 tokens concurrently
	for i := 0; i < 100; i++ {
		go func(id int64) {
			token, err := service.GenerateToken(id, "user", "", "staff")
			if err != nil {
				errors <- err
				done <- true
				return
			}

			_, err = service.ValidateToken(token)
			if err != nil {
				errors <- err
			}
			done <- true
		}(int64(i))
	}

	// Wait for all goroutines
	for i := 0; i < 100; i++ {
		<-done
	}

	close(errors)
	assert.Empty(t, errors)
}
