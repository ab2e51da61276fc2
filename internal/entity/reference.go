package entity

import "time"

type CoordinatesSystem string

const (
	GPS       CoordinatesSystem = "gps"
	Lambert93 CoordinatesSystem = "lambert93"
)

// Labeled backs every table that only carries a label: observers, weathers,
// classes, sexes, ages and distance estimates.
type Labeled struct {
	ID    int64  `json:"id" db:"id"`
	Label string `json:"label" db:"label"`
}

type Department struct {
	ID   int64  `json:"id" db:"id"`
	Code string `json:"code" db:"code"`
}

type Town struct {
	ID           int64  `json:"id" db:"id"`
	DepartmentID int64  `json:"department_id" db:"department_id"`
	Code         int    `json:"code" db:"code"`
	Name         string `json:"name" db:"name"`
}

type Locality struct {
	ID                int64             `json:"id" db:"id"`
	TownID            int64             `json:"town_id" db:"town_id"`
	Name              string            `json:"name" db:"name"`
	Latitude          float64           `json:"latitude" db:"latitude"`
	Longitude         float64           `json:"longitude" db:"longitude"`
	Altitude          int               `json:"altitude" db:"altitude"`
	CoordinatesSystem CoordinatesSystem `json:"coordinates_system" db:"coordinates_system"`
}

type NumberEstimate struct {
	ID       int64  `json:"id" db:"id"`
	Label    string `json:"label" db:"label"`
	NonCount bool   `json:"non_count" db:"non_count"`
}

type Species struct {
	ID         int64  `json:"id" db:"id"`
	ClassID    int64  `json:"class_id" db:"class_id"`
	Code       string `json:"code" db:"code"`
	FrenchName string `json:"french_name" db:"french_name"`
	LatinName  string `json:"latin_name" db:"latin_name"`
}

type Behavior struct {
	ID       int64  `json:"id" db:"id"`
	Code     string `json:"code" db:"code"`
	Label    string `json:"label" db:"label"`
	Breeding string `json:"breeding" db:"breeding"`
}

type Environment struct {
	ID    int64  `json:"id" db:"id"`
	Code  string `json:"code" db:"code"`
	Label string `json:"label" db:"label"`
}

type Observation struct {
	ID                 int64             `json:"id" db:"id"`
	ObserverID         int64             `json:"observer_id" db:"observer_id"`
	AssociateIDs       []int64           `json:"associate_ids" db:"associate_ids"`
	Date               time.Time         `json:"date" db:"date"`
	Time               *string           `json:"time,omitempty" db:"time"`
	Duration           *string           `json:"duration,omitempty" db:"duration"`
	LocalityID         int64             `json:"locality_id" db:"locality_id"`
	Latitude           *float64          `json:"latitude,omitempty" db:"latitude"`
	Longitude          *float64          `json:"longitude,omitempty" db:"longitude"`
	Altitude           *int              `json:"altitude,omitempty" db:"altitude"`
	CoordinatesSystem  CoordinatesSystem `json:"coordinates_system" db:"coordinates_system"`
	WeatherIDs         []int64           `json:"weather_ids" db:"weather_ids"`
	SpeciesID          int64             `json:"species_id" db:"species_id"`
	SexID              int64             `json:"sex_id" db:"sex_id"`
	AgeID              int64             `json:"age_id" db:"age_id"`
	NumberEstimateID   int64             `json:"number_estimate_id" db:"number_estimate_id"`
	Number             *int              `json:"number,omitempty" db:"number"`
	DistanceEstimateID *int64            `json:"distance_estimate_id,omitempty" db:"distance_estimate_id"`
	Distance           *int              `json:"distance,omitempty" db:"distance"`
	Regroupment        *int              `json:"regroupment,omitempty" db:"regroupment"`
	BehaviorIDs        []int64           `json:"behavior_ids" db:"behavior_ids"`
	EnvironmentIDs     []int64           `json:"environment_ids" db:"environment_ids"`
	Comment            *string           `json:"comment,omitempty" db:"comment"`
}
