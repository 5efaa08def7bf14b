package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/octagonbets/ppv-bot/internal/models"
	"github.com/octagonbets/ppv-bot/internal/repository"
)

const tournamentColumns = `id, name, date, location, fights, status, bets_open, has_odds, selected_at, updated_at`

type TournamentsRepo struct {
	db *sql.DB
}

func NewTournamentsRepo(db *sql.DB) repository.TournamentsRepository {
	return &TournamentsRepo{db: db}
}

func (r *TournamentsRepo) Save(ctx context.Context, t models.Tournament) error {
	fights, err := json.Marshal(fightsOrEmpty(t.Fights))
	if err != nil {
		return fmt.Errorf("encode fights: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if t.Status == models.TournamentStatusActive {
		if _, err := tx.ExecContext(ctx, `
			UPDATE tournaments
			SET status = ?, bets_open = 0, updated_at = ?
			WHERE status = ? AND id <> ?`,
			string(models.TournamentStatusCancelled), toMillis(t.UpdatedAt), string(models.TournamentStatusActive), t.ID,
		); err != nil {
			return fmt.Errorf("supersede active: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tournaments (`+tournamentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			date = excluded.date,
			location = excluded.location,
			fights = excluded.fights,
			status = excluded.status,
			bets_open = excluded.bets_open,
			has_odds = excluded.has_odds,
			selected_at = excluded.selected_at,
			updated_at = excluded.updated_at`,
		t.ID, t.Name, t.Date, t.Location, string(fights), string(t.Status),
		t.BetsOpen, t.HasOdds, toMillis(t.SelectedAt), toMillis(t.UpdatedAt),
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *TournamentsRepo) GetActive(ctx context.Context) (*models.Tournament, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+tournamentColumns+`
		FROM tournaments
		WHERE status = ?
		ORDER BY selected_at DESC
		LIMIT 1`, string(models.TournamentStatusActive))
	return oneTournament(row)
}

func (r *TournamentsRepo) Get(ctx context.Context, id string) (*models.Tournament, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+tournamentColumns+`
		FROM tournaments WHERE id = ?`, id)
	return oneTournament(row)
}

func (r *TournamentsRepo) List(ctx context.Context, status *models.TournamentStatus) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments`
	var args []any
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY selected_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Tournament
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

func (r *TournamentsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func oneTournament(row *sql.Row) (*models.Tournament, error) {
	t, err := scanTournament(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func scanTournament(row scanner) (*models.Tournament, error) {
	var (
		t          models.Tournament
		fights     string
		selectedAt int64
		updatedAt  int64
	)
	if err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Date,
		&t.Location,
		&fights,
		&t.Status,
		&t.BetsOpen,
		&t.HasOdds,
		&selectedAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	if fights != "" {
		if err := json.Unmarshal([]byte(fights), &t.Fights); err != nil {
			return nil, fmt.Errorf("decode fights of %s: %w", t.ID, err)
		}
	}
	t.SelectedAt = fromMillis(selectedAt)
	t.UpdatedAt = fromMillis(updatedAt)
	return &t, nil
}

func fightsOrEmpty(fights []models.Fight) []models.Fight {
	if fights == nil {
		return []models.Fight{}
	}
	return fights
}
