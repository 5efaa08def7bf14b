package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates absence of a record.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates business rule violation.
	ErrValidation = errors.New("validation error")
)

type User struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username,omitempty"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
	IsAdmin    bool      `json:"is_admin"`
}

// DisplayName prefers the first name and falls back to the username.
func (u User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return "боец"
}

type TournamentStatus string

const (
	TournamentStatusActive    TournamentStatus = "active"
	TournamentStatusFinished  TournamentStatus = "finished"
	TournamentStatusCancelled TournamentStatus = "cancelled"
)

func (s TournamentStatus) Valid() bool {
	switch s {
	case TournamentStatusActive, TournamentStatusFinished, TournamentStatusCancelled:
		return true
	default:
		return false
	}
}

type FightCategory string

const (
	FightCategoryMain        FightCategory = "main"
	FightCategoryPreliminary FightCategory = "preliminary"
)

// Odds holds the payout multiplier for each corner. Both values are > 1.
type Odds struct {
	Fighter1 decimal.Decimal `json:"fighter1"`
	Fighter2 decimal.Decimal `json:"fighter2"`
}

type Fight struct {
	Position int           `json:"position"`
	Fighter1 string        `json:"fighter1"`
	Fighter2 string        `json:"fighter2"`
	Category FightCategory `json:"category"`
	Odds     *Odds         `json:"odds,omitempty"`
}

type Tournament struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Date       string           `json:"date"`
	Location   string           `json:"location"`
	Fights     []Fight          `json:"fights"`
	Status     TournamentStatus `json:"status"`
	BetsOpen   bool             `json:"bets_open"`
	HasOdds    bool             `json:"has_odds"`
	SelectedAt time.Time        `json:"selected_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (t *Tournament) IsActive() bool {
	return t != nil && t.Status == TournamentStatusActive
}

// Clone returns a deep copy so callers can mutate fights without touching the original.
func (t *Tournament) Clone() *Tournament {
	if t == nil {
		return nil
	}
	out := *t
	if t.Fights != nil {
		out.Fights = make([]Fight, len(t.Fights))
		for i, f := range t.Fights {
			if f.Odds != nil {
				odds := *f.Odds
				f.Odds = &odds
			}
			out.Fights[i] = f
		}
	}
	return &out
}

// Bet is stored by schema only; no flow writes it yet.
type Bet struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	TournamentID  string    `json:"tournament_id"`
	FightIndex    int       `json:"fight_index"`
	FighterChoice string    `json:"fighter_choice"`
	Amount        int       `json:"amount"`
	CreatedAt     time.Time `json:"created_at"`
}

// Event is an upcoming card as reported by the event source.
type Event struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Date     string `json:"date"`
	Location string `json:"location"`
}

type AdminSession struct {
	AdminID     int64
	CurrentFlow *string
	FlowState   []byte
	UpdatedAt   time.Time
}
