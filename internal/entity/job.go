package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EntityType string

const (
	TypeObserver         EntityType = "observer"
	TypeDepartment       EntityType = "department"
	TypeTown             EntityType = "town"
	TypeLocality         EntityType = "locality"
	TypeWeather          EntityType = "weather"
	TypeClass            EntityType = "class"
	TypeSpecies          EntityType = "species"
	TypeSex              EntityType = "sex"
	TypeAge              EntityType = "age"
	TypeNumberEstimate   EntityType = "number-estimate"
	TypeDistanceEstimate EntityType = "distance-estimate"
	TypeBehavior         EntityType = "behavior"
	TypeEnvironment      EntityType = "environment"
	TypeObservation      EntityType = "observation"
)

// EntityTypes lists every importable type in publication order.
var EntityTypes = []EntityType{
	TypeObserver,
	TypeDepartment,
	TypeTown,
	TypeLocality,
	TypeWeather,
	TypeClass,
	TypeSpecies,
	TypeSex,
	TypeAge,
	TypeNumberEstimate,
	TypeDistanceEstimate,
	TypeBehavior,
	TypeEnvironment,
	TypeObservation,
}

func (t EntityType) Valid() bool {
	for _, known := range EntityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ImportJob is created once the upload is stored and is consumed by exactly one worker run.
type ImportJob struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	EntityType  EntityType      `json:"entity_type" db:"entity_type"`
	RequesterID string          `json:"requester_id" db:"requester_id"`
	Priority    int             `json:"priority" db:"priority"`
	FinalStatus json.RawMessage `json:"final_status,omitempty" db:"final_status"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}
