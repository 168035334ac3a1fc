package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SquadList is a JSON-encoded list of panel squad identifiers.
type SquadList []string

func (s *SquadList) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported squad list type %T", src)
	}
}

func (s SquadList) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

type Tariff struct {
	ID                uuid.UUID `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	DurationDays      int       `json:"duration_days" db:"duration_days"`
	TrafficLimitBytes *int64    `json:"traffic_limit_bytes,omitempty" db:"traffic_limit_bytes"`
	SquadIDs          SquadList `json:"squad_ids,omitempty" db:"squad_ids"`
	SquadID           *string   `json:"squad_id,omitempty" db:"squad_id"`
	IsActive          bool      `json:"is_active" db:"is_active"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// ResolveSquads returns the panel squads a purchase activates: the explicit
// list, else the single squad, else the configured default.
func (t *Tariff) ResolveSquads(defaultSquadID string) []string {
	if len(t.SquadIDs) > 0 {
		return t.SquadIDs
	}
	if t.SquadID != nil && *t.SquadID != "" {
		return []string{*t.SquadID}
	}
	if defaultSquadID != "" {
		return []string{defaultSquadID}
	}
	return nil
}
