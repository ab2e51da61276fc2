package importer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
)

var observationColumns = []string{
	"observer", "associates", "date", "time", "duration",
	"departmentCode", "townCodeOrName", "localityName",
	"latitude", "longitude", "altitude",
	"weathers", "speciesCode", "sex", "age",
	"numberEstimate", "number", "distanceEstimate", "distance", "regroupment",
	"behaviors", "environments", "comment",
}

const (
	colObserver = iota
	colAssociates
	colDate
	colTime
	colDuration
	colDepartment
	colTown
	colLocality
	colLatitude
	colLongitude
	colAltitude
	colWeathers
	colSpecies
	colSex
	colAge
	colNumberEstimate
	colNumber
	colDistanceEstimate
	colDistance
	colRegroupment
	colBehaviors
	colEnvironments
	colComment
)

const (
	maxBehaviors     = 6
	maxEnvironments  = 4
	maxCommentLength = 1000
	listSeparator    = ","
	dateLayout       = "02/01/2006"
)

var durationPattern = regexp.MustCompile(`^\d{1,3}:[0-5]\d$`)

type observationReferences struct {
	observers         []entity.Labeled
	weathers          []entity.Labeled
	sexes             []entity.Labeled
	ages              []entity.Labeled
	distanceEstimates []entity.Labeled
	departments       []entity.Department
	towns             []entity.Town
	localities        []entity.Locality
	species           []entity.Species
	numberEstimates   []entity.NumberEstimate
	behaviors         []entity.Behavior
	environments      []entity.Environment
}

type observationValidator struct {
	deps   Deps
	refs   observationReferences
	system entity.CoordinatesSystem
	staging[entity.Observation]
}

func newObservationValidator(deps Deps) *observationValidator {
	return &observationValidator{
		deps:    deps,
		staging: staging[entity.Observation]{store: deps.Observations},
	}
}

func (v *observationValidator) NumberOfColumns() int { return len(observationColumns) }

func (v *observationValidator) Init(ctx context.Context, requesterID string) error {
	d, r := v.deps, &v.refs
	loaders := []func() error{
		func() error { return loadInto(ctx, &r.observers, d.Observers, "observers") },
		func() error { return loadInto(ctx, &r.weathers, d.Weathers, "weathers") },
		func() error { return loadInto(ctx, &r.sexes, d.Sexes, "sexes") },
		func() error { return loadInto(ctx, &r.ages, d.Ages, "ages") },
		func() error { return loadInto(ctx, &r.distanceEstimates, d.DistanceEstimates, "distance estimates") },
		func() error { return loadInto(ctx, &r.departments, d.Departments, "departments") },
		func() error { return loadInto(ctx, &r.towns, d.Towns, "towns") },
		func() error { return loadInto(ctx, &r.localities, d.Localities, "localities") },
		func() error { return loadInto(ctx, &r.species, d.Species, "species") },
		func() error { return loadInto(ctx, &r.numberEstimates, d.NumberEstimates, "number estimates") },
		func() error { return loadInto(ctx, &r.behaviors, d.Behaviors, "behaviors") },
		func() error { return loadInto(ctx, &r.environments, d.Environments, "environments") },
	}
	for _, load := range loaders {
		if err := load(); err != nil {
			return err
		}
	}

	system, err := resolveSystem(ctx, d.Settings, requesterID)
	if err != nil {
		return fmt.Errorf("load coordinates system: %w", err)
	}
	v.system = system
	return v.load(ctx, "observations")
}

func (v *observationValidator) ValidateAndPrepare(row []string) error {
	obs, err := v.parseFields(row)
	if err != nil {
		return err
	}
	if err := v.resolveReferences(row, &obs); err != nil {
		return err
	}
	if err := v.checkCounts(row, &obs); err != nil {
		return err
	}

	if v.any(func(o entity.Observation) bool { return sameObservation(o, obs) }) {
		return ErrDuplicateObservation
	}

	v.stage(obs)
	return nil
}

func (v *observationValidator) parseFields(row []string) (entity.Observation, error) {
	obs := entity.Observation{CoordinatesSystem: v.system}

	date, err := time.Parse(dateLayout, strings.TrimSpace(row[colDate]))
	if err != nil {
		return obs, ErrInvalidDate
	}
	obs.Date = date

	if raw := strings.TrimSpace(row[colTime]); raw != "" {
		t, err := time.Parse("15:04", raw)
		if err != nil {
			return obs, ErrInvalidTime
		}
		formatted := t.Format("15:04")
		obs.Time = &formatted
	}
	if raw := strings.TrimSpace(row[colDuration]); raw != "" {
		if !durationPattern.MatchString(raw) {
			return obs, ErrInvalidDuration
		}
		obs.Duration = &raw
	}

	if !blank(row[colLatitude], row[colLongitude], row[colAltitude]) {
		if blank(row[colLatitude]) || blank(row[colLongitude]) || blank(row[colAltitude]) {
			return obs, ErrIncompleteCoordinates
		}
		coords, err := parseCoordinates(v.system, row[colLatitude], row[colLongitude], row[colAltitude])
		if err != nil {
			return obs, err
		}
		obs.Latitude, obs.Longitude, obs.Altitude = &coords.latitude, &coords.longitude, &coords.altitude
	}

	if obs.Distance, err = optionalInt(row[colDistance], 0, ErrInvalidDistance); err != nil {
		return obs, err
	}
	if obs.Regroupment, err = optionalInt(row[colRegroupment], 1, ErrInvalidRegroupment); err != nil {
		return obs, err
	}

	if comment := strings.TrimSpace(row[colComment]); comment != "" {
		if utf8.RuneCountInString(comment) > maxCommentLength {
			return obs, ErrCommentTooLong
		}
		obs.Comment = &comment
	}
	return obs, nil
}

func (v *observationValidator) resolveReferences(row []string, obs *entity.Observation) error {
	r := &v.refs
	byLabel := func(l entity.Labeled) string { return l.Label }
	labeledID := func(l entity.Labeled) int64 { return l.ID }

	observer, ok := findByLabel(r.observers, row[colObserver], byLabel)
	if !ok {
		return ErrObserverNotFound
	}
	obs.ObserverID = observer.ID

	var err error
	if obs.AssociateIDs, err = resolveList(row[colAssociates], r.observers, byLabel, labeledID, ErrAssociateNotFound); err != nil {
		return err
	}

	department, ok := findDepartment(r.departments, row[colDepartment])
	if !ok {
		return ErrDepartmentNotFound
	}
	town, ok := findTown(r.towns, department.ID, row[colTown])
	if !ok {
		return ErrTownNotFound
	}
	locality, ok := findLocality(r.localities, town.ID, row[colLocality])
	if !ok {
		return ErrLocalityNotFound
	}
	obs.LocalityID = locality.ID

	if obs.WeatherIDs, err = resolveList(row[colWeathers], r.weathers, byLabel, labeledID, ErrWeatherNotFound); err != nil {
		return err
	}

	species, ok := findByLabel(r.species, row[colSpecies], func(s entity.Species) string { return s.Code })
	if !ok {
		return ErrSpeciesNotFound
	}
	obs.SpeciesID = species.ID

	sex, ok := findByLabel(r.sexes, row[colSex], byLabel)
	if !ok {
		return ErrSexNotFound
	}
	obs.SexID = sex.ID

	age, ok := findByLabel(r.ages, row[colAge], byLabel)
	if !ok {
		return ErrAgeNotFound
	}
	obs.AgeID = age.ID

	estimate, ok := findByLabel(r.numberEstimates, row[colNumberEstimate], func(e entity.NumberEstimate) string { return e.Label })
	if !ok {
		return ErrNumberEstimateNotFound
	}
	obs.NumberEstimateID = estimate.ID

	if !blank(row[colDistanceEstimate]) {
		distanceEstimate, ok := findByLabel(r.distanceEstimates, row[colDistanceEstimate], byLabel)
		if !ok {
			return ErrDistanceEstimateNotFound
		}
		obs.DistanceEstimateID = &distanceEstimate.ID
	}

	if len(splitList(row[colBehaviors])) > maxBehaviors {
		return ErrTooManyBehaviors
	}
	if obs.BehaviorIDs, err = resolveList(row[colBehaviors], r.behaviors,
		func(b entity.Behavior) string { return b.Code },
		func(b entity.Behavior) int64 { return b.ID },
		ErrBehaviorNotFound); err != nil {
		return err
	}

	if len(splitList(row[colEnvironments])) > maxEnvironments {
		return ErrTooManyEnvironments
	}
	if obs.EnvironmentIDs, err = resolveList(row[colEnvironments], r.environments,
		func(e entity.Environment) string { return e.Code },
		func(e entity.Environment) int64 { return e.ID },
		ErrEnvironmentNotFound); err != nil {
		return err
	}
	return nil
}

// checkCounts applies the rules that depend on the resolved estimates.
func (v *observationValidator) checkCounts(row []string, obs *entity.Observation) error {
	nonCount := false
	for _, e := range v.refs.numberEstimates {
		if e.ID == obs.NumberEstimateID {
			nonCount = e.NonCount
			break
		}
	}

	if nonCount {
		if !blank(row[colNumber]) {
			return ErrNumberForbidden
		}
	} else {
		number, err := optionalInt(row[colNumber], 1, ErrNumberRequired)
		if err != nil {
			return err
		}
		if number == nil {
			return ErrNumberRequired
		}
		obs.Number = number
	}

	if obs.Distance != nil && obs.DistanceEstimateID == nil {
		return ErrDistanceWithoutEstimate
	}
	return nil
}

func sameObservation(a, b entity.Observation) bool {
	return a.ObserverID == b.ObserverID &&
		a.Date.Equal(b.Date) &&
		equalPtr(a.Time, b.Time) &&
		a.LocalityID == b.LocalityID &&
		a.SpeciesID == b.SpeciesID &&
		a.SexID == b.SexID &&
		a.AgeID == b.AgeID &&
		a.NumberEstimateID == b.NumberEstimateID &&
		equalPtr(a.Number, b.Number)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// optionalInt parses an integer that must be at least lower; an empty cell yields nil.
func optionalInt(raw string, lower int, invalid Rejection) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lower {
		return nil, invalid
	}
	return &n, nil
}

func splitList(raw string) []string {
	var values []string
	for _, part := range strings.Split(raw, listSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

// resolveList maps a comma separated cell to ids. A value listed twice is rejected.
func resolveList[T any](raw string, items []T, key func(T) string, id func(T) int64, notFound Rejection) ([]int64, error) {
	values := splitList(raw)
	ids := make([]int64, 0, len(values))
	for i, value := range values {
		for _, previous := range values[:i] {
			if SameText(previous, value) {
				return nil, ErrRepeatedValue
			}
		}
		item, ok := findByLabel(items, value, key)
		if !ok {
			return nil, notFound
		}
		ids = append(ids, id(item))
	}
	return ids, nil
}

func loadInto[T any](ctx context.Context, dst *[]T, f Finder[T], what string) error {
	all, err := loadAll(ctx, f, what)
	if err != nil {
		return err
	}
	*dst = all
	return nil
}
