package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	apperrors "github.com/jrsteele09/enedis-gateway/internal/errors"
	"github.com/jrsteele09/enedis-gateway/users"
)

var _ users.Repo = (*UserRepo)(nil)

// UserRepo stores users in the users table.
type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `id, firstname, lastname, usage_point_id, access_token, refresh_token, expires_at`

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("[UserRepo GetByID] %w", err)
	}
	return u, nil
}

// FindOrCreate inserts the user unless one with the same id exists, in which case the
// stored row is returned untouched.
func (r *UserRepo) FindOrCreate(ctx context.Context, user *users.User) (*users.User, bool, error) {
	if user == nil || user.ID == "" {
		return nil, false, apperrors.Wrapf(apperrors.ErrInvalidRequest, "[UserRepo FindOrCreate] user id is required")
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
		RETURNING `+userColumns,
		user.ID, user.Firstname, user.Lastname, user.UsagePointID,
		user.AccessToken, user.RefreshToken, nullableTime(user.ExpiresAt),
	)
	created, err := scanUser(row)
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("[UserRepo FindOrCreate] %w", err)
	}

	existing, err := r.GetByID(ctx, user.ID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *UserRepo) Update(ctx context.Context, user *users.User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET firstname = $2, lastname = $3, usage_point_id = $4,
		    access_token = $5, refresh_token = $6, expires_at = $7, updated_at = now()
		WHERE id = $1`,
		user.ID, user.Firstname, user.Lastname, user.UsagePointID,
		user.AccessToken, user.RefreshToken, nullableTime(user.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("[UserRepo Update] %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*users.User, error) {
	var u users.User
	var expiresAt *time.Time
	if err := row.Scan(&u.ID, &u.Firstname, &u.Lastname, &u.UsagePointID, &u.AccessToken, &u.RefreshToken, &expiresAt); err != nil {
		return nil, err
	}
	if expiresAt != nil {
		u.ExpiresAt = *expiresAt
	}
	return &u, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
