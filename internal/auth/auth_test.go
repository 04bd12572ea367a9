package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xtrntr/ihome/internal/auth/authtest"
	"github.com/xtrntr/ihome/internal/booking"
	"github.com/xtrntr/ihome/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func newTestService(t *testing.T) *AuthService {
	t.Helper()
	images, err := storage.NewLocalStore(t.TempDir(), "/images", 1<<20)
	require.NoError(t, err)
	return NewAuthService(authtest.NewMemUsers(), images, testSecret, time.Hour)
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name      string
		mobile    string
		password  string
		expectErr error
	}{
		{name: "Success", mobile: "13812345678", password: "password123"},
		{name: "MalformedMobile", mobile: "12345", password: "password123", expectErr: booking.ErrValidation},
		{name: "ShortPassword", mobile: "13812345678", password: "abc", expectErr: booking.ErrValidation},
		{name: "LongPassword", mobile: "13812345678", password: strings.Repeat("p", 100), expectErr: booking.ErrValidation},
		{name: "DuplicateMobile", mobile: "13800000000", password: "password123", expectErr: booking.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t)
			ctx := context.Background()

			// For duplicate test, ensure the user exists first
			if tt.name == "DuplicateMobile" {
				_, err := s.Register(ctx, tt.mobile, "password123")
				require.NoError(t, err)
			}

			user, err := s.Register(ctx, tt.mobile, tt.password)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mobile, user.Mobile)
			assert.Equal(t, tt.mobile, user.Name, "initial name is the mobile")
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tt.password)))
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	s := newTestService(t)
	registered, err := s.Register(context.Background(), "13812345678", "password123")
	require.NoError(t, err)

	tests := []struct {
		name        string
		mobile      string
		password    string
		expectError bool
	}{
		{name: "Success", mobile: "13812345678", password: "password123"},
		{name: "WrongPassword", mobile: "13812345678", password: "wrongpass", expectError: true},
		{name: "NonExistentUser", mobile: "13900000000", password: "password123", expectError: true},
		{name: "LongPassword", mobile: "13812345678", password: strings.Repeat("p", 1000), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, token, err := s.Login(context.Background(), tt.mobile, tt.password)
			if tt.expectError {
				assert.ErrorIs(t, err, ErrInvalidCredentials)
				assert.ErrorIs(t, err, booking.ErrPolicy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, registered.ID, user.ID)

			// Verify token
			parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
				return []byte(testSecret), nil
			})
			require.NoError(t, err)
			claims, ok := parsed.Claims.(jwt.MapClaims)
			require.True(t, ok)
			assert.Equal(t, float64(registered.ID), claims["user_id"])
		})
	}
}

func TestAuthService_GetUserFromToken(t *testing.T) {
	s := newTestService(t)
	token, err := s.IssueToken(1)
	require.NoError(t, err)

	expiredToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": float64(1),
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	expiredTokenStr, _ := expiredToken.SignedString([]byte(testSecret))
	invalidToken, _ := expiredToken.SignedString([]byte("wrong-key"))
	noUser, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))

	tests := []struct {
		name         string
		token        string
		expectUserID int
		expectError  bool
	}{
		{name: "Success", token: token, expectUserID: 1},
		{name: "ExpiredToken", token: expiredTokenStr, expectError: true},
		{name: "InvalidSignature", token: invalidToken, expectError: true},
		{name: "MissingUser", token: noUser, expectError: true},
		{name: "EmptyToken", token: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, err := s.GetUserFromToken(tt.token)
			if tt.expectError {
				assert.ErrorIs(t, err, booking.ErrPolicy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectUserID, userID)
		})
	}
}

func TestAuthService_Profile(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	alice, err := s.Register(ctx, "13811111111", "password123")
	require.NoError(t, err)
	bob, err := s.Register(ctx, "13822222222", "password123")
	require.NoError(t, err)

	require.NoError(t, s.SetName(ctx, alice.ID, "  alice "))
	assert.ErrorIs(t, s.SetName(ctx, bob.ID, "alice"), booking.ErrConflict)
	assert.ErrorIs(t, s.SetName(ctx, bob.ID, "   "), booking.ErrValidation)

	profile, err := s.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Name)

	url, err := s.SetAvatar(ctx, alice.ID, []byte("\x89PNG\x0D\x0A\x1A\x0A0000"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/images/"))
	profile, _ = s.GetProfile(ctx, alice.ID)
	assert.Equal(t, url, profile.AvatarURL)

	_, err = s.SetAvatar(ctx, alice.ID, []byte("not an image"))
	assert.ErrorIs(t, err, booking.ErrValidation)

	_, err = s.GetProfile(ctx, 999)
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

func TestAuthService_RealNameAuth(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	user, err := s.Register(ctx, "13811111111", "password123")
	require.NoError(t, err)

	tests := []struct {
		name      string
		realName  string
		idCard    string
		expectErr error
	}{
		{name: "EmptyName", realName: "", idCard: "110101199003071234", expectErr: booking.ErrValidation},
		{name: "ShortIDCard", realName: "Li Lei", idCard: "1101011990", expectErr: booking.ErrValidation},
		{name: "Success", realName: "Li Lei", idCard: "11010119900307123x"},
		{name: "SecondAttempt", realName: "Han Meimei", idCard: "110101199003071234", expectErr: booking.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.SetRealNameAuth(ctx, user.ID, tt.realName, tt.idCard)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				return
			}
			require.NoError(t, err)
		})
	}

	got, err := s.GetRealNameAuth(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, &RealNameAuth{RealName: "Li Lei", IDCard: "11010119900307123X"}, got)
}
