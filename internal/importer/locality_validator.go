package importer

import (
	"context"
	"fmt"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
)

const maxLocalityNameLength = 150

var localityColumns = []string{"departmentCode", "townCodeOrName", "localityName", "latitude", "longitude", "altitude"}

type localityValidator struct {
	departmentFinder Finder[entity.Department]
	townFinder       Finder[entity.Town]
	settings         SettingsReader

	departments []entity.Department
	towns       []entity.Town
	system      entity.CoordinatesSystem
	staging[entity.Locality]
}

func newLocalityValidator(departments Finder[entity.Department], towns Finder[entity.Town], localities Store[entity.Locality], settings SettingsReader) *localityValidator {
	return &localityValidator{
		departmentFinder: departments,
		townFinder:       towns,
		settings:         settings,
		staging:          staging[entity.Locality]{store: localities},
	}
}

func (v *localityValidator) NumberOfColumns() int { return len(localityColumns) }

func (v *localityValidator) Init(ctx context.Context, requesterID string) error {
	var err error
	if v.departments, err = loadAll(ctx, v.departmentFinder, "departments"); err != nil {
		return err
	}
	if v.towns, err = loadAll(ctx, v.townFinder, "towns"); err != nil {
		return err
	}
	if v.system, err = resolveSystem(ctx, v.settings, requesterID); err != nil {
		return fmt.Errorf("load coordinates system: %w", err)
	}
	return v.load(ctx, "localities")
}

func (v *localityValidator) ValidateAndPrepare(row []string) error {
	name, err := requiredText(row[2], "Le nom du lieu-dit", maxLocalityNameLength, ErrLocalityNameRequired)
	if err != nil {
		return err
	}
	coords, err := parseCoordinates(v.system, row[3], row[4], row[5])
	if err != nil {
		return err
	}

	department, ok := findDepartment(v.departments, row[0])
	if !ok {
		return ErrDepartmentNotFound
	}
	town, ok := findTown(v.towns, department.ID, row[1])
	if !ok {
		return ErrTownNotFound
	}

	if v.any(func(l entity.Locality) bool { return l.TownID == town.ID && SameText(l.Name, name) }) {
		return ErrDuplicateLocality
	}

	v.stage(entity.Locality{
		TownID:            town.ID,
		Name:              name,
		Latitude:          coords.latitude,
		Longitude:         coords.longitude,
		Altitude:          coords.altitude,
		CoordinatesSystem: v.system,
	})
	return nil
}

func findLocality(localities []entity.Locality, townID int64, name string) (entity.Locality, bool) {
	for _, l := range localities {
		if l.TownID == townID && SameText(l.Name, name) {
			return l, true
		}
	}
	return entity.Locality{}, false
}
