package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
)

const mysqlDuplicateEntry = 1062

type UserRepository struct {
	DB *sql.DB
}

func (r UserRepository) db() (*sql.DB, error) { return pick(r.DB) }

// Create inserts a user. A duplicate mobile or email yields a ConflictError.
func (r UserRepository) Create(ctx context.Context, u models.User) (int64, error) {
	db, err := r.db()
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO users (name, age, mobile, email, password_hash)
		VALUES (?, ?, ?, ?, ?)
	`, u.Name, u.Age, u.Mobile, u.Email, u.PasswordHash)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return 0, domain.ConflictError{Resource: "user", Msg: "Mobile number or email already exists.", Err: err}
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

func (r UserRepository) GetByMobile(ctx context.Context, mobile string) (models.User, error) {
	db, err := r.db()
	if err != nil {
		return models.User{}, err
	}
	var (
		u     models.User
		age   sql.NullInt64
		email sql.NullString
	)
	err = db.QueryRowContext(ctx, `
		SELECT user_id, name, age, mobile, email, password_hash, created_at
		FROM users WHERE mobile = ?
	`, mobile).Scan(&u.UserID, &u.Name, &age, &u.Mobile, &email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, domain.NotFoundError{Resource: "user", Msg: "User not found.", Err: err}
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user by mobile: %w", err)
	}
	if age.Valid {
		a := int(age.Int64)
		u.Age = &a
	}
	u.Email = nullString(email)
	return u, nil
}
