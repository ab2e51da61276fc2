package postgresql

import (
	"github.com/alexandresoro/ouca-sub007/internal/entity"
	"github.com/alexandresoro/ouca-sub007/internal/importer"
)

func labeledTable(db DB, name string) *Table[entity.Labeled] {
	return newTable(db, name, []string{"label"}, func(l entity.Labeled) []any {
		return []any{l.Label}
	})
}

func NewDepartments(db DB) *Table[entity.Department] {
	return newTable(db, "departments", []string{"code"}, func(d entity.Department) []any {
		return []any{d.Code}
	})
}

func NewTowns(db DB) *Table[entity.Town] {
	return newTable(db, "towns", []string{"department_id", "code", "name"}, func(t entity.Town) []any {
		return []any{t.DepartmentID, t.Code, t.Name}
	})
}

func NewLocalities(db DB) *Table[entity.Locality] {
	return newTable(db, "localities",
		[]string{"town_id", "name", "latitude", "longitude", "altitude", "coordinates_system"},
		func(l entity.Locality) []any {
			return []any{l.TownID, l.Name, l.Latitude, l.Longitude, l.Altitude, string(l.CoordinatesSystem)}
		})
}

func NewNumberEstimates(db DB) *Table[entity.NumberEstimate] {
	return newTable(db, "number_estimates", []string{"label", "non_count"}, func(e entity.NumberEstimate) []any {
		return []any{e.Label, e.NonCount}
	})
}

func NewSpecies(db DB) *Table[entity.Species] {
	return newTable(db, "species", []string{"class_id", "code", "french_name", "latin_name"}, func(s entity.Species) []any {
		return []any{s.ClassID, s.Code, s.FrenchName, s.LatinName}
	})
}

func NewBehaviors(db DB) *Table[entity.Behavior] {
	return newTable(db, "behaviors", []string{"code", "label", "breeding"}, func(b entity.Behavior) []any {
		return []any{b.Code, b.Label, b.Breeding}
	})
}

func NewEnvironments(db DB) *Table[entity.Environment] {
	return newTable(db, "environments", []string{"code", "label"}, func(e entity.Environment) []any {
		return []any{e.Code, e.Label}
	})
}

var observationColumns = []string{
	"observer_id", "associate_ids", "date", "time", "duration", "locality_id",
	"latitude", "longitude", "altitude", "coordinates_system", "weather_ids",
	"species_id", "sex_id", "age_id", "number_estimate_id", "number",
	"distance_estimate_id", "distance", "regroupment", "behavior_ids", "environment_ids", "comment",
}

func NewObservations(db DB) *Table[entity.Observation] {
	return newTable(db, "observations", observationColumns, func(o entity.Observation) []any {
		return []any{
			o.ObserverID, nonNil(o.AssociateIDs), o.Date, o.Time, o.Duration, o.LocalityID,
			o.Latitude, o.Longitude, o.Altitude, string(o.CoordinatesSystem), nonNil(o.WeatherIDs),
			o.SpeciesID, o.SexID, o.AgeID, o.NumberEstimateID, o.Number,
			o.DistanceEstimateID, o.Distance, o.Regroupment, nonNil(o.BehaviorIDs), nonNil(o.EnvironmentIDs), o.Comment,
		}
	})
}

// nonNil keeps empty id lists from being written as NULL.
func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

// ImporterDeps wires every validator dependency to its table.
func ImporterDeps(db DB) importer.Deps {
	return importer.Deps{
		Observers:         labeledTable(db, "observers"),
		Weathers:          labeledTable(db, "weathers"),
		Classes:           labeledTable(db, "classes"),
		Sexes:             labeledTable(db, "sexes"),
		Ages:              labeledTable(db, "ages"),
		DistanceEstimates: labeledTable(db, "distance_estimates"),
		NumberEstimates:   NewNumberEstimates(db),
		Departments:       NewDepartments(db),
		Towns:             NewTowns(db),
		Localities:        NewLocalities(db),
		Species:           NewSpecies(db),
		Behaviors:         NewBehaviors(db),
		Environments:      NewEnvironments(db),
		Observations:      NewObservations(db),
		Settings:          NewSettingsRepository(db),
	}
}
