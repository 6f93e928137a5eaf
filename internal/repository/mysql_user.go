package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/samber/oops"

	"github.com/authflow/authflow-go/internal/model"
)

const mysqlDuplicateEntry = 1062

const selectUserColumns = `SELECT id, name, email, password_hash, verified,
	verify_otp, verify_otp_expire_at, reset_otp, reset_otp_expire_at, created_at, updated_at
	FROM users`

// MySQLUserRepository stores users in MySQL. Update serializes writers on the
// row with SELECT ... FOR UPDATE.
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQLUserRepository.
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

// Create inserts a new user.
func (r *MySQLUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, name, email, password_hash, verified,
		verify_otp, verify_otp_expire_at, reset_otp, reset_otp_expire_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Verified,
		user.VerifyOTP, toMillis(user.VerifyOTPExpireAt), user.ResetOTP, toMillis(user.ResetOTPExpireAt),
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateEmail
		}
		return oops.In("user_repository").With("operation", "Create").Wrap(err)
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByID retrieves a user by identity.
func (r *MySQLUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, selectUserColumns+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, oops.In("user_repository").With("operation", "GetByID").Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email address.
func (r *MySQLUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, selectUserColumns+` WHERE email = ?`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, oops.In("user_repository").With("operation", "GetByEmail").Wrap(err)
	}
	return user, nil
}

// Update applies fn to the locked row inside a transaction.
func (r *MySQLUserRepository) Update(ctx context.Context, id string, fn func(*model.User) error) (*model.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, oops.In("user_repository").With("operation", "Update").Wrap(err)
	}
	defer tx.Rollback()

	user, err := scanUser(tx.QueryRowContext(ctx, selectUserColumns+` WHERE id = ? FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, oops.In("user_repository").With("operation", "Update").With("step", "select").Wrap(err)
	}

	if err := fn(user); err != nil {
		return nil, err
	}

	query := `UPDATE users SET name = ?, email = ?, password_hash = ?, verified = ?,
		verify_otp = ?, verify_otp_expire_at = ?, reset_otp = ?, reset_otp_expire_at = ?
		WHERE id = ?`

	if _, err := tx.ExecContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Verified,
		user.VerifyOTP, toMillis(user.VerifyOTPExpireAt), user.ResetOTP, toMillis(user.ResetOTPExpireAt),
		id,
	); err != nil {
		if isDuplicateEntryError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, oops.In("user_repository").With("operation", "Update").With("step", "write").Wrap(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, oops.In("user_repository").With("operation", "Update").With("step", "commit").Wrap(err)
	}

	user.UpdatedAt = time.Now()
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		user                      model.User
		verifyExpire, resetExpire int64
	)
	if err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Verified,
		&user.VerifyOTP, &verifyExpire, &user.ResetOTP, &resetExpire,
		&user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.VerifyOTPExpireAt = fromMillis(verifyExpire)
	user.ResetOTPExpireAt = fromMillis(resetExpire)
	return &user, nil
}

// Expiry columns hold unix milliseconds; 0 means no code is outstanding.
func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func isDuplicateEntryError(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
