package session

import (
	"context"
	"encoding/json"

	"github.com/octagonbets/ppv-bot/internal/models"
	"github.com/octagonbets/ppv-bot/internal/service"
)

// Store persists one admin's wizard state as JSON through the session service.
type Store struct {
	sessions service.SessionService
}

func NewStore(sessions service.SessionService) *Store {
	return &Store{sessions: sessions}
}

// Load decodes the stored state into stateOut. It returns nil when the admin has no session.
func (s *Store) Load(ctx context.Context, adminID int64, stateOut any) (*models.AdminSession, error) {
	session, err := s.sessions.Get(ctx, adminID)
	if err != nil || session == nil {
		return session, err
	}
	if len(session.FlowState) > 0 && stateOut != nil {
		if err := json.Unmarshal(session.FlowState, stateOut); err != nil {
			return nil, err
		}
	}
	return session, nil
}

func (s *Store) Save(ctx context.Context, adminID int64, flowName *string, state any) error {
	var payload []byte
	if state != nil {
		buf, err := json.Marshal(state)
		if err != nil {
			return err
		}
		payload = buf
	}
	return s.sessions.Save(ctx, models.AdminSession{
		AdminID:     adminID,
		CurrentFlow: flowName,
		FlowState:   payload,
	})
}

func (s *Store) Clear(ctx context.Context, adminID int64) error {
	return s.sessions.Delete(ctx, adminID)
}
