package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/octagonbets/ppv-bot/internal/models"
	"github.com/octagonbets/ppv-bot/internal/repository"
)

type SessionsRepo struct {
	db *sql.DB
}

func NewSessionsRepo(db *sql.DB) repository.SessionsRepository {
	return &SessionsRepo{db: db}
}

func (r *SessionsRepo) Get(ctx context.Context, adminID int64) (*models.AdminSession, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT admin_id, current_flow, flow_state, updated_at
		FROM admin_sessions
		WHERE admin_id = ?`, adminID)

	var (
		session   models.AdminSession
		flow      sql.NullString
		updatedAt int64
	)
	if err := row.Scan(&session.AdminID, &flow, &session.FlowState, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	if flow.Valid {
		session.CurrentFlow = &flow.String
	}
	session.UpdatedAt = fromMillis(updatedAt)
	return &session, nil
}

func (r *SessionsRepo) Upsert(ctx context.Context, session models.AdminSession) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admin_sessions (admin_id, current_flow, flow_state, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(admin_id) DO UPDATE SET
			current_flow = excluded.current_flow,
			flow_state = excluded.flow_state,
			updated_at = excluded.updated_at`,
		session.AdminID, session.CurrentFlow, session.FlowState, toMillis(time.Now()),
	)
	return err
}

func (r *SessionsRepo) Delete(ctx context.Context, adminID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE admin_id = ?`, adminID)
	return err
}
