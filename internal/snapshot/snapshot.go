// Package snapshot keeps the single-slot document copy of the current tournament.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/octagonbets/ppv-bot/internal/models"
)

// Store is a single-slot document store. Load returns models.ErrNotFound when the slot is empty.
type Store interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc Document) error
	Delete(ctx context.Context) error
}

type Meta struct {
	SelectedAt time.Time `json:"selected_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Active     bool      `json:"active"`
}

// Document is the on-disk shape: the tournament fields at the top level plus a _meta block.
type Document struct {
	ID       string                  `json:"id"`
	Name     string                  `json:"name"`
	Date     string                  `json:"date"`
	Location string                  `json:"location"`
	Fights   []models.Fight          `json:"fights"`
	Status   models.TournamentStatus `json:"status"`
	BetsOpen bool                    `json:"bets_open"`
	HasOdds  bool                    `json:"has_odds"`
	Meta     Meta                    `json:"_meta"`
}

func FromTournament(t models.Tournament) Document {
	fights := t.Fights
	if fights == nil {
		fights = []models.Fight{}
	}
	return Document{
		ID:       t.ID,
		Name:     t.Name,
		Date:     t.Date,
		Location: t.Location,
		Fights:   fights,
		Status:   t.Status,
		BetsOpen: t.BetsOpen,
		HasOdds:  t.HasOdds,
		Meta: Meta{
			SelectedAt: t.SelectedAt,
			UpdatedAt:  t.UpdatedAt,
			Active:     t.Status == models.TournamentStatusActive,
		},
	}
}

func (d Document) Tournament() models.Tournament {
	return models.Tournament{
		ID:         d.ID,
		Name:       d.Name,
		Date:       d.Date,
		Location:   d.Location,
		Fights:     d.Fights,
		Status:     d.Status,
		BetsOpen:   d.BetsOpen,
		HasOdds:    d.HasOdds,
		SelectedAt: d.Meta.SelectedAt,
		UpdatedAt:  d.Meta.UpdatedAt,
	}
}

func encode(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("decode snapshot: missing id: %w", models.ErrValidation)
	}
	return &doc, nil
}
