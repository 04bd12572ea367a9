package auth

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xtrntr/ihome/internal/booking"
	"github.com/xtrntr/ihome/internal/models"
)

var idCardPattern = regexp.MustCompile(`^[0-9]{17}[0-9Xx]$`)

// RealNameAuth is the identity a user recorded for bookings
type RealNameAuth struct {
	RealName string `json:"real_name"`
	IDCard   string `json:"id_card"`
}

// GetProfile returns the user with the given id
func (s *AuthService) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	return s.Users.GetUserByID(ctx, userID)
}

// SetName renames the user. Names are unique across users.
func (s *AuthService) SetName(ctx context.Context, userID int, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", booking.ErrValidation)
	}
	if utf8.RuneCountInString(name) > 32 {
		return fmt.Errorf("%w: name too long (max 32 characters)", booking.ErrValidation)
	}
	return s.Users.UpdateUserName(ctx, userID, name)
}

// SetAvatar stores the uploaded image and returns its URL
func (s *AuthService) SetAvatar(ctx context.Context, userID int, image []byte) (string, error) {
	key, err := s.Images.Put(ctx, image)
	if err != nil {
		return "", err
	}
	url := s.Images.URL(key)
	if err := s.Users.SetUserAvatar(ctx, userID, url); err != nil {
		return "", err
	}
	return url, nil
}

// GetRealNameAuth returns the recorded identity, empty when none is set
func (s *AuthService) GetRealNameAuth(ctx context.Context, userID int) (*RealNameAuth, error) {
	user, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &RealNameAuth{RealName: user.RealName, IDCard: user.IDCard}, nil
}

// SetRealNameAuth records the identity of the user; it cannot be changed afterwards
func (s *AuthService) SetRealNameAuth(ctx context.Context, userID int, realName, idCard string) error {
	realName = strings.TrimSpace(realName)
	if realName == "" {
		return fmt.Errorf("%w: real name cannot be empty", booking.ErrValidation)
	}
	if !idCardPattern.MatchString(idCard) {
		return fmt.Errorf("%w: malformed id card number", booking.ErrValidation)
	}
	return s.Users.SetUserAuth(ctx, userID, realName, strings.ToUpper(idCard))
}
