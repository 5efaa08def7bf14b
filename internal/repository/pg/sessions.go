package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octagonbets/ppv-bot/internal/models"
	"github.com/octagonbets/ppv-bot/internal/repository"
)

type SessionsRepo struct {
	pool *pgxpool.Pool
}

func NewSessionsRepo(pool *pgxpool.Pool) repository.SessionsRepository {
	return &SessionsRepo{pool: pool}
}

func (r *SessionsRepo) Get(ctx context.Context, adminID int64) (*models.AdminSession, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT admin_tg_id, current_flow, flow_state, updated_at
		FROM admin_sessions
		WHERE admin_tg_id = $1`, adminID)
	var (
		session models.AdminSession
		flow    *string
		state   []byte
	)
	if err := row.Scan(
		&session.AdminID,
		&flow,
		&state,
		&session.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	session.CurrentFlow = flow
	session.FlowState = state
	return &session, nil
}

func (r *SessionsRepo) Upsert(ctx context.Context, session models.AdminSession) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO admin_sessions (admin_tg_id, current_flow, flow_state, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (admin_tg_id)
		DO UPDATE SET current_flow = EXCLUDED.current_flow,
		              flow_state = EXCLUDED.flow_state,
		              updated_at = NOW()`,
		session.AdminID,
		session.CurrentFlow,
		session.FlowState,
	)
	return err
}

func (r *SessionsRepo) Delete(ctx context.Context, adminID int64) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM admin_sessions WHERE admin_tg_id = $1`, adminID)
	return err
}
