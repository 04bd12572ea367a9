package db

import (
	"context"
	"fmt"

	"github.com/xtrntr/ihome/internal/booking"
	"github.com/xtrntr/ihome/internal/models"

	"github.com/jackc/pgx/v5"
)

const userColumns = "id, mobile, name, password_hash, avatar_url, real_name, id_card, created_at"

func scanUser(row pgx.Row, u *models.User) error {
	return row.Scan(&u.ID, &u.Mobile, &u.Name, &u.PasswordHash, &u.AvatarURL, &u.RealName, &u.IDCard, &u.CreatedAt)
}

// CreateUser inserts a new user; the mobile doubles as the initial name
func (db *DB) CreateUser(ctx context.Context, mobile, passwordHash string) (*models.User, error) {
	user := &models.User{}
	err := scanUser(db.Pool.QueryRow(ctx,
		"INSERT INTO users (mobile, name, password_hash) VALUES ($1, $1, $2) RETURNING "+userColumns,
		mobile, passwordHash), user)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return nil, fmt.Errorf("%w: mobile %s is already registered", booking.ErrConflict, mobile)
		}
		return nil, persistence("create user", err)
	}
	return user, nil
}

// GetUserByMobile retrieves a user by mobile number
func (db *DB) GetUserByMobile(ctx context.Context, mobile string) (*models.User, error) {
	user := &models.User{}
	err := scanUser(db.Pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE mobile = $1", mobile), user)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("%w: user %s", booking.ErrNotFound, mobile)
		}
		return nil, persistence("get user", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by id
func (db *DB) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	user := &models.User{}
	err := scanUser(db.Pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id), user)
	if err != nil {
		return nil, lookup("user", id, err)
	}
	return user, nil
}

// UpdateUserName renames a user. Names are unique.
func (db *DB) UpdateUserName(ctx context.Context, id int, name string) error {
	tag, err := db.Pool.Exec(ctx, "UPDATE users SET name = $1 WHERE id = $2", name, id)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return fmt.Errorf("%w: name %q is taken", booking.ErrConflict, name)
		}
		return persistence("update user name", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %d", booking.ErrNotFound, id)
	}
	return nil
}

// SetUserAvatar stores the avatar url of a user
func (db *DB) SetUserAvatar(ctx context.Context, id int, url string) error {
	tag, err := db.Pool.Exec(ctx, "UPDATE users SET avatar_url = $1 WHERE id = $2", url, id)
	if err != nil {
		return persistence("update avatar", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %d", booking.ErrNotFound, id)
	}
	return nil
}

// SetUserAuth records the real-name identity of a user. It can only be set once.
func (db *DB) SetUserAuth(ctx context.Context, id int, realName, idCard string) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return persistence("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	// Lock the row so two concurrent submissions cannot both pass the check
	var current string
	err = tx.QueryRow(ctx, "SELECT real_name FROM users WHERE id = $1 FOR UPDATE", id).Scan(&current)
	if err != nil {
		return lookup("user", id, err)
	}
	if current != "" {
		return fmt.Errorf("%w: real-name identity already recorded", booking.ErrConflict)
	}

	_, err = tx.Exec(ctx, "UPDATE users SET real_name = $1, id_card = $2 WHERE id = $3", realName, idCard, id)
	if err != nil {
		return persistence("update real-name identity", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return persistence("commit transaction", err)
	}
	return nil
}
