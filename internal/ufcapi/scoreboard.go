package ufcapi

import (
	"strings"
	"time"

	"github.com/octagonbets/ppv-bot/internal/models"
)

type scoreboard struct {
	Events []espnEvent `json:"events"`
}

type espnEvent struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Date   string `json:"date"`
	Season struct {
		Slug string `json:"slug"`
	} `json:"season"`
	Competitions []competition `json:"competitions"`
}

type competition struct {
	Type struct {
		Slug string `json:"slug"`
	} `json:"type"`
	League struct {
		Slug string `json:"slug"`
	} `json:"league"`
	Venue *struct {
		FullName string `json:"fullName"`
		Address  struct {
			City    string `json:"city"`
			State   string `json:"state"`
			Country string `json:"country"`
		} `json:"address"`
	} `json:"venue"`
	Competitors []struct {
		Athlete struct {
			DisplayName string `json:"displayName"`
		} `json:"athlete"`
	} `json:"competitors"`
}

// ESPN omits seconds in most event dates.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04Z07:00"}

func (e espnEvent) isUFC() bool {
	if e.Season.Slug == "ufc" {
		return true
	}
	name := strings.ToUpper(e.Name)
	if strings.Contains(name, "UFC") || strings.Contains(name, "ULTIMATE FIGHTING CHAMPIONSHIP") {
		return true
	}
	return len(e.Competitions) > 0 && e.Competitions[0].League.Slug == "ufc"
}

func (e espnEvent) startTime() time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, e.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (e espnEvent) toModel() models.Event {
	event := models.Event{
		ID:       e.ID,
		Name:     e.Name,
		Date:     "Дата не указана",
		Location: "Место не указано",
	}
	if event.Name == "" {
		event.Name = "Неизвестный турнир"
	}
	if e.Date != "" {
		if start := e.startTime(); !start.IsZero() {
			event.Date = start.Format(displayLayout)
		} else {
			event.Date = e.Date
		}
	}
	if len(e.Competitions) > 0 && e.Competitions[0].Venue != nil {
		venue := e.Competitions[0].Venue
		var parts []string
		for _, part := range []string{venue.Address.City, venue.Address.State, venue.Address.Country} {
			if part != "" {
				parts = append(parts, part)
			}
		}
		switch {
		case len(parts) > 0:
			event.Location = strings.Join(parts, ", ")
		case venue.FullName != "":
			event.Location = venue.FullName
		}
	}
	return event
}

// fights lists bouts in card order. ESPN returns the main event last.
func (e espnEvent) fights() []models.Fight {
	var out []models.Fight
	for _, comp := range e.Competitions {
		if len(comp.Competitors) < 2 {
			continue
		}
		fight := models.Fight{
			Fighter1: comp.Competitors[0].Athlete.DisplayName,
			Fighter2: comp.Competitors[1].Athlete.DisplayName,
			Category: models.FightCategoryPreliminary,
		}
		if fight.Fighter1 == "" {
			fight.Fighter1 = "Боец 1"
		}
		if fight.Fighter2 == "" {
			fight.Fighter2 = "Боец 2"
		}
		if comp.Type.Slug == "main" {
			fight.Category = models.FightCategoryMain
		}
		out = append(out, fight)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	for i := range out {
		out[i].Position = i
	}
	return out
}
