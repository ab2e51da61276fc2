package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
)

var ErrUnknownEntityType = errors.New("unknown entity type")

// Deps gathers the repositories the validators read from and write to.
type Deps struct {
	Observers         Store[entity.Labeled]
	Weathers          Store[entity.Labeled]
	Classes           Store[entity.Labeled]
	Sexes             Store[entity.Labeled]
	Ages              Store[entity.Labeled]
	DistanceEstimates Store[entity.Labeled]
	NumberEstimates   Store[entity.NumberEstimate]
	Departments       Store[entity.Department]
	Towns             Store[entity.Town]
	Localities        Store[entity.Locality]
	Species           Store[entity.Species]
	Behaviors         Store[entity.Behavior]
	Environments      Store[entity.Environment]
	Observations      Store[entity.Observation]
	Settings          SettingsReader
}

// New builds a fresh validator for one run of an import of type t.
func New(t entity.EntityType, d Deps) (Validator, error) {
	switch t {
	case entity.TypeObserver:
		return newLabelValidator(d.Observers, "observers", ErrDuplicateObserver), nil
	case entity.TypeWeather:
		return newLabelValidator(d.Weathers, "weathers", ErrDuplicateWeather), nil
	case entity.TypeClass:
		return newLabelValidator(d.Classes, "classes", ErrDuplicateClass), nil
	case entity.TypeSex:
		return newLabelValidator(d.Sexes, "sexes", ErrDuplicateSex), nil
	case entity.TypeAge:
		return newLabelValidator(d.Ages, "ages", ErrDuplicateAge), nil
	case entity.TypeDistanceEstimate:
		return newLabelValidator(d.DistanceEstimates, "distance estimates", ErrDuplicateDistanceEstimate), nil
	case entity.TypeNumberEstimate:
		return newNumberEstimateValidator(d.NumberEstimates), nil
	case entity.TypeDepartment:
		return newDepartmentValidator(d.Departments), nil
	case entity.TypeTown:
		return newTownValidator(d.Departments, d.Towns), nil
	case entity.TypeLocality:
		return newLocalityValidator(d.Departments, d.Towns, d.Localities, d.Settings), nil
	case entity.TypeSpecies:
		return newSpeciesValidator(d.Classes, d.Species), nil
	case entity.TypeBehavior:
		return newBehaviorValidator(d.Behaviors), nil
	case entity.TypeEnvironment:
		return newEnvironmentValidator(d.Environments), nil
	case entity.TypeObservation:
		return newObservationValidator(d), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEntityType, t)
}

// Contract is the column layout expected for an entity type.
type Contract struct {
	EntityType entity.EntityType `json:"entity_type"`
	Columns    []string          `json:"columns"`
}

var columnsByType = map[entity.EntityType][]string{
	entity.TypeObserver:         labelColumns,
	entity.TypeWeather:          labelColumns,
	entity.TypeClass:            labelColumns,
	entity.TypeSex:              labelColumns,
	entity.TypeAge:              labelColumns,
	entity.TypeDistanceEstimate: labelColumns,
	entity.TypeNumberEstimate:   numberEstimateColumns,
	entity.TypeDepartment:       departmentColumns,
	entity.TypeTown:             townColumns,
	entity.TypeLocality:         localityColumns,
	entity.TypeSpecies:          speciesColumns,
	entity.TypeBehavior:         behaviorColumns,
	entity.TypeEnvironment:      environmentColumns,
	entity.TypeObservation:      observationColumns,
}

// ColumnsOf returns the expected columns of t, or nil for an unknown type.
func ColumnsOf(t entity.EntityType) []string {
	columns, ok := columnsByType[t]
	if !ok {
		return nil
	}
	return append([]string(nil), columns...)
}

func Contracts() []Contract {
	contracts := make([]Contract, 0, len(entity.EntityTypes))
	for _, t := range entity.EntityTypes {
		contracts = append(contracts, Contract{EntityType: t, Columns: ColumnsOf(t)})
	}
	return contracts
}

// DryRun wraps v so that the run validates every row but never writes.
func DryRun(v Validator) Validator {
	return dryRun{v}
}

type dryRun struct {
	Validator
}

func (dryRun) Persist(context.Context, string) error { return nil }
