package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/xtrntr/ihome/internal/booking"
	"github.com/xtrntr/ihome/internal/models"
	"github.com/xtrntr/ihome/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenTTL is used when the service is built without a token lifetime
const DefaultTokenTTL = 24 * time.Hour

var (
	mobilePattern = regexp.MustCompile(`^1[3-9][0-9]{9}$`)

	// ErrInvalidCredentials is returned by Login for an unknown mobile or a wrong password
	ErrInvalidCredentials = fmt.Errorf("%w: invalid mobile or password", booking.ErrPolicy)
)

// UserStore is the user persistence the auth service needs
type UserStore interface {
	CreateUser(ctx context.Context, mobile, passwordHash string) (*models.User, error)
	GetUserByMobile(ctx context.Context, mobile string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	UpdateUserName(ctx context.Context, id int, name string) error
	SetUserAvatar(ctx context.Context, id int, url string) error
	SetUserAuth(ctx context.Context, id int, realName, idCard string) error
}

// AuthService handles user authentication and profiles
type AuthService struct {
	Users  UserStore
	Images storage.ImageStore
	secret []byte
	ttl    time.Duration
}

// NewAuthService creates a new auth service signing tokens with secret
func NewAuthService(users UserStore, images storage.ImageStore, secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &AuthService{Users: users, Images: images, secret: []byte(secret), ttl: ttl}
}

// Register creates a new user with hashed password
func (s *AuthService) Register(ctx context.Context, mobile, password string) (*models.User, error) {
	// Validate input
	if !mobilePattern.MatchString(mobile) {
		return nil, fmt.Errorf("%w: malformed mobile number", booking.ErrValidation)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: password too short (min 6 characters)", booking.ErrValidation)
	}
	if len(password) > 72 {
		return nil, fmt.Errorf("%w: password too long (max 72 characters)", booking.ErrValidation)
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to hash password: %w", booking.ErrPersistence, err)
	}

	return s.Users.CreateUser(ctx, mobile, string(hashedPassword))
}

// Login verifies credentials and generates a JWT
func (s *AuthService) Login(ctx context.Context, mobile, password string) (*models.User, string, error) {
	user, err := s.Users.GetUserByMobile(ctx, mobile)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// IssueToken signs a token for userID that expires after the configured TTL
func (s *AuthService) IssueToken(userID int) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(s.ttl).Unix(),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: failed to sign token: %w", booking.ErrPersistence, err)
	}
	return tokenString, nil
}

// GetUserFromToken extracts user ID from JWT
func (s *AuthService) GetUserFromToken(tokenString string) (int, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid token: %w", booking.ErrPolicy, err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		userID, ok := claims["user_id"].(float64)
		if !ok {
			return 0, fmt.Errorf("%w: token carries no user", booking.ErrPolicy)
		}
		return int(userID), nil
	}
	return 0, fmt.Errorf("%w: invalid token", booking.ErrPolicy)
}
