package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/xtrntr/ihome/internal/auth"
	"github.com/xtrntr/ihome/internal/booking"
	"github.com/xtrntr/ihome/internal/listing"
	"github.com/xtrntr/ihome/internal/notify"
)

type contextKey string

const userIDKey contextKey = "user_id"

// multipart headers on top of the file itself
const uploadOverhead = 1 << 20

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Booking     *booking.Service
	Listing     *listing.Service
	AuthService *auth.AuthService
	Hub         *notify.Hub // optional
	Logger      *logrus.Logger
	MaxUpload   int64
	validate    *validator.Validate
}

// NewHandler creates a new handler
func NewHandler(bookingSvc *booking.Service, listingSvc *listing.Service, authService *auth.AuthService, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	v := validator.New()
	// Report json field names in validation errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{
		Booking:     bookingSvc,
		Listing:     listingSvc,
		AuthService: authService,
		Logger:      logger,
		MaxUpload:   5 << 20,
		validate:    v,
	}
}

// JWTAuthMiddleware verifies JWT tokens
func (h *Handler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			writeError(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		// Remove "Bearer " prefix if present
		tokenString = strings.TrimPrefix(tokenString, "Bearer ")

		userID, err := h.AuthService.GetUserFromToken(tokenString)
		if err != nil {
			writeError(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID returns the authenticated user stored by JWTAuthMiddleware
func UserID(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDKey).(int)
	return userID, ok
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := UserID(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
	}
	return userID, ok
}

// decode reads a JSON body into dst and runs its validate tags
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body", booking.ErrValidation)
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: field %s failed on %s", booking.ErrValidation, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %w", booking.ErrValidation, err)
	}
	return nil
}

// readUpload returns the content of the multipart file sent under field
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload+uploadOverhead)
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("%w: %s file is required", booking.ErrValidation, field)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", booking.ErrValidation, field, err)
	}
	return data, nil
}

func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", booking.ErrValidation, name)
	}
	return id, nil
}

// statusFor maps an error kind to its HTTP status
func statusFor(err error) int {
	switch booking.Kind(err) {
	case booking.ErrValidation:
		return http.StatusBadRequest
	case booking.ErrNotFound:
		return http.StatusNotFound
	case booking.ErrConflict:
		return http.StatusConflict
	case booking.ErrPolicy:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// fail answers with the status of err's kind. Storage failures are logged
// and reported without their cause.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.Logger.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("Request failed")
		msg = "Internal server error"
	}
	writeError(w, msg, status)
}

func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
