package httpapi

import (
	"time"

	"github.com/riskibarqy/auction-engine/internal/domain/auction"
	"github.com/riskibarqy/auction-engine/internal/usecase"
)

type setTablesRequest struct {
	Tables int `json:"tables" validate:"required,gt=0"`
}

type setBudgetRequest struct {
	Budget int64 `json:"budget" validate:"required,gt=0"`
}

type setLimitsRequest struct {
	MinBuy int `json:"min_buy" validate:"min=0"`
	MaxBuy int `json:"max_buy" validate:"min=0"`
}

type setCountdownRequest struct {
	Seconds int `json:"seconds" validate:"required"`
}

type assignTeamRequest struct {
	Team   string `json:"team" validate:"required,max=64"`
	Member string `json:"member" validate:"required,max=128"`
}

type userRefRequest struct {
	User string `json:"user" validate:"required,max=128"`
}

type adjustBudgetRequest struct {
	Delta int64 `json:"delta" validate:"required"`
}

type playerRequest struct {
	Identifier string `json:"identifier" validate:"required,max=128"`
	Name       string `json:"name" validate:"omitempty,max=128"`
	Role       string `json:"role" validate:"omitempty,max=64"`
}

type loadPlayersRequest struct {
	Players []playerRequest `json:"players" validate:"required,min=1,max=500,dive"`
}

type defineSetRequest struct {
	Name      string          `json:"name" validate:"omitempty,max=64"`
	BasePrice int64           `json:"base_price" validate:"required,gt=0"`
	Players   []playerRequest `json:"players" validate:"required,min=1,max=500,dive"`
}

type announceSlotRequest struct {
	Player    string `json:"player" validate:"required,max=128"`
	BasePrice int64  `json:"base_price" validate:"min=0"`
}

type placeBidRequest struct {
	Team   string `json:"team" validate:"omitempty,max=64"`
	Amount *int64 `json:"amount" validate:"omitempty,gt=0"`
}

func playerInputs(items []playerRequest) []usecase.PlayerInput {
	out := make([]usecase.PlayerInput, 0, len(items))
	for _, item := range items {
		out = append(out, usecase.PlayerInput{
			Identifier: item.Identifier,
			Name:       item.Name,
			Role:       item.Role,
		})
	}
	return out
}

type sessionDTO struct {
	VenueID          string         `json:"venue_id"`
	Active           bool           `json:"active"`
	RunID            string         `json:"run_id,omitempty"`
	Host             string         `json:"host"`
	HostName         string         `json:"host_name,omitempty"`
	CountdownSeconds int            `json:"countdown_seconds"`
	Teams            []auction.Team `json:"teams"`
	Slot             *auction.Slot  `json:"slot,omitempty"`
}

func sessionToDTO(v auction.Session) sessionDTO {
	teams := v.Teams
	if teams == nil {
		teams = []auction.Team{}
	}
	return sessionDTO{
		VenueID:          v.VenueID,
		Active:           v.Active,
		RunID:            v.CurrentRunID,
		Host:             v.HostID.String(),
		HostName:         v.HostName,
		CountdownSeconds: v.CountdownSeconds,
		Teams:            teams,
		Slot:             v.Slot,
	}
}

type slotStartDTO struct {
	Slot *auction.Slot `json:"slot"`
}

type loadedDTO struct {
	Added int `json:"added"`
}

type setDTO struct {
	Index     int              `json:"index"`
	Name      string           `json:"name"`
	BasePrice int64            `json:"base_price"`
	Players   []auction.Player `json:"players"`
}

type identityDTO struct {
	User string `json:"user"`
}

type budgetDTO struct {
	Team      string `json:"team"`
	Remaining int64  `json:"remaining"`
}

type runSummaryDTO struct {
	RunID         string     `json:"run_id"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Teams         []string   `json:"teams"`
	PlayersLoaded int        `json:"players_loaded"`
	Sold          int        `json:"sold"`
	Unsold        int        `json:"unsold"`
}

func runToSummaryDTO(v auction.Run) runSummaryDTO {
	teams := v.Teams
	if teams == nil {
		teams = []string{}
	}
	return runSummaryDTO{
		RunID:         v.RunID,
		StartedAt:     v.StartedAt,
		EndedAt:       v.EndedAt,
		CompletedAt:   v.CompletedAt,
		Teams:         teams,
		PlayersLoaded: v.PlayersLoaded,
		Sold:          len(v.Sold),
		Unsold:        len(v.Unsold),
	}
}
