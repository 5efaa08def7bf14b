package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octagonbets/ppv-bot/internal/models"
	"github.com/octagonbets/ppv-bot/internal/repository"
)

type UsersRepo struct {
	pool *pgxpool.Pool
}

func NewUsersRepo(pool *pgxpool.Pool) repository.UsersRepository {
	return &UsersRepo{pool: pool}
}

func (r *UsersRepo) Upsert(ctx context.Context, user models.User, now time.Time) (bool, error) {
	// xmax is zero only for a freshly inserted tuple.
	var created bool
	if err := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, first_name, last_name, created_at, last_active, is_admin)
		VALUES ($1, $2, $3, $4, $5, $5, $6)
		ON CONFLICT (id)
		DO UPDATE SET username = EXCLUDED.username,
		              first_name = EXCLUDED.first_name,
		              last_name = EXCLUDED.last_name,
		              last_active = EXCLUDED.last_active,
		              is_admin = EXCLUDED.is_admin
		RETURNING (xmax = 0)`,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		now.UTC(),
		user.IsAdmin,
	).Scan(&created); err != nil {
		return false, err
	}
	return created, nil
}

func (r *UsersRepo) Get(ctx context.Context, id int64) (*models.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, first_name, last_name, created_at, last_active, is_admin
		FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *UsersRepo) List(ctx context.Context, activeSince *time.Time) ([]models.User, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if activeSince != nil {
		rows, err = r.pool.Query(ctx, `
			SELECT id, username, first_name, last_name, created_at, last_active, is_admin
			FROM users
			WHERE last_active > $1
			ORDER BY last_active DESC`, activeSince.UTC())
	} else {
		rows, err = r.pool.Query(ctx, `
			SELECT id, username, first_name, last_name, created_at, last_active, is_admin
			FROM users
			ORDER BY created_at DESC`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *user)
	}
	return items, rows.Err()
}

func (r *UsersRepo) Count(ctx context.Context, activeSince *time.Time) (int, error) {
	var total int
	var err error
	if activeSince != nil {
		err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE last_active > $1`, activeSince.UTC()).Scan(&total)
	} else {
		err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total)
	}
	if err != nil {
		return 0, err
	}
	return total, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.CreatedAt,
		&user.LastActive,
		&user.IsAdmin,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
