package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/octagonbets/ppv-bot/internal/models"
	"github.com/octagonbets/ppv-bot/internal/repository"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) repository.UsersRepository {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Upsert(ctx context.Context, user models.User, now time.Time) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, user.ID).Scan(&exists)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, username, first_name, last_name, created_at, last_active, is_admin)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			user.ID, user.Username, user.FirstName, user.LastName,
			toMillis(now), toMillis(now), user.IsAdmin,
		); err != nil {
			return false, err
		}
		return true, tx.Commit()
	case err != nil:
		return false, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE users
		SET username = ?, first_name = ?, last_name = ?, last_active = ?, is_admin = ?
		WHERE id = ?`,
		user.Username, user.FirstName, user.LastName, toMillis(now), user.IsAdmin, user.ID,
	); err != nil {
		return false, err
	}
	return false, tx.Commit()
}

func (r *UsersRepo) Get(ctx context.Context, id int64) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, first_name, last_name, created_at, last_active, is_admin
		FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *UsersRepo) List(ctx context.Context, activeSince *time.Time) ([]models.User, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if activeSince != nil {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, username, first_name, last_name, created_at, last_active, is_admin
			FROM users
			WHERE last_active > ?
			ORDER BY last_active DESC`, toMillis(*activeSince))
	} else {
		rows, err = r.db.QueryContext(ctx, `
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
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE last_active > ?`, toMillis(*activeSince)).Scan(&total)
	} else {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total)
	}
	if err != nil {
		return 0, err
	}
	return total, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	var (
		user       models.User
		createdAt  int64
		lastActive int64
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&createdAt,
		&lastActive,
		&user.IsAdmin,
	); err != nil {
		return nil, err
	}
	user.CreatedAt = fromMillis(createdAt)
	user.LastActive = fromMillis(lastActive)
	return &user, nil
}
