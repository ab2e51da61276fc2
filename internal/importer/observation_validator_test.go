package importer_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
	"github.com/alexandresoro/ouca-sub007/internal/importer"
)

type observationRow struct {
	observer, associates, date, time, duration         string
	department, town, locality                         string
	latitude, longitude, altitude                      string
	weathers, species, sex, age                        string
	numberEstimate, number, distanceEstimate, distance string
	regroupment, behaviors, environments, comment      string
}

func (r observationRow) cells() []string {
	return []string{
		r.observer, r.associates, r.date, r.time, r.duration,
		r.department, r.town, r.locality,
		r.latitude, r.longitude, r.altitude,
		r.weathers, r.species, r.sex, r.age,
		r.numberEstimate, r.number, r.distanceEstimate, r.distance,
		r.regroupment, r.behaviors, r.environments, r.comment,
	}
}

func validObservation() observationRow {
	return observationRow{
		observer:       "alice",
		associates:     "Bob",
		date:           "12/05/2024",
		time:           "7:30",
		duration:       "1:15",
		department:     "01",
		town:           "999",
		locality:       "Bois",
		weathers:       "soleil, Pluie",
		species:        "mernoi",
		sex:            "male",
		age:            "adulte",
		numberEstimate: "Exact",
		number:         "3",
		behaviors:      "A1",
		environments:   "E1",
	}
}

func observationFixture() *fixture {
	f := &fixture{}
	f.observers.items = []entity.Labeled{{ID: 1, Label: "Alice"}, {ID: 2, Label: "Bob"}}
	f.weathers.items = []entity.Labeled{{ID: 1, Label: "Soleil"}, {ID: 2, Label: "Pluie"}}
	f.sexes.items = []entity.Labeled{{ID: 1, Label: "Mâle"}}
	f.ages.items = []entity.Labeled{{ID: 1, Label: "Adulte"}}
	f.distanceEstimates.items = []entity.Labeled{{ID: 1, Label: "Estimée"}}
	f.numberEstimates.items = []entity.NumberEstimate{{ID: 1, Label: "Exact"}, {ID: 2, Label: "Non compté", NonCount: true}}
	f.departments.items = []entity.Department{{ID: 1, Code: "01"}}
	f.towns.items = []entity.Town{{ID: 10, DepartmentID: 1, Code: 999, Name: "Sample Town"}}
	f.localities.items = []entity.Locality{{ID: 100, TownID: 10, Name: "Bois"}}
	f.species.items = []entity.Species{{ID: 7, ClassID: 1, Code: "MERNOI", FrenchName: "Merle noir", LatinName: "Turdus merula"}}
	f.behaviors.items = []entity.Behavior{{ID: 1, Code: "A1", Label: "Chant"}, {ID: 2, Code: "A2", Label: "Cri"}}
	f.environments.items = []entity.Environment{{ID: 1, Code: "E1", Label: "Forêt"}}
	return f
}

func newObservationValidator(t *testing.T, f *fixture) importer.Validator {
	t.Helper()
	v, err := importer.New(entity.TypeObservation, f.deps())
	require.NoError(t, err)
	require.NoError(t, v.Init(context.Background(), requester))
	return v
}

func TestObservationValidator_AcceptsValidRow(t *testing.T) {
	f := observationFixture()
	v := newObservationValidator(t, f)

	require.Equal(t, 23, v.NumberOfColumns())
	require.NoError(t, v.ValidateAndPrepare(validObservation().cells()))
	require.NoError(t, v.Persist(context.Background(), requester))

	require.Len(t, f.observations.created, 1)
	obs := f.observations.created[0][0]
	assert.Equal(t, int64(1), obs.ObserverID)
	assert.Equal(t, []int64{2}, obs.AssociateIDs)
	assert.Equal(t, time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC), obs.Date)
	require.NotNil(t, obs.Time)
	assert.Equal(t, "07:30", *obs.Time)
	require.NotNil(t, obs.Duration)
	assert.Equal(t, "1:15", *obs.Duration)
	assert.Equal(t, int64(100), obs.LocalityID)
	assert.Nil(t, obs.Latitude)
	assert.Equal(t, []int64{1, 2}, obs.WeatherIDs)
	assert.Equal(t, int64(7), obs.SpeciesID)
	require.NotNil(t, obs.Number)
	assert.Equal(t, 3, *obs.Number)
	assert.Equal(t, []int64{1}, obs.BehaviorIDs)
	assert.Equal(t, []int64{1}, obs.EnvironmentIDs)
	assert.Nil(t, obs.Comment)
	assert.Equal(t, requester, f.observations.owner)
}

func TestObservationValidator_CoordinatesOverrideLocality(t *testing.T) {
	f := observationFixture()
	v := newObservationValidator(t, f)

	row := validObservation()
	row.latitude, row.longitude, row.altitude = "45,5", "5.25", "320"
	require.NoError(t, v.ValidateAndPrepare(row.cells()))
	require.NoError(t, v.Persist(context.Background(), requester))

	obs := f.observations.created[0][0]
	require.NotNil(t, obs.Latitude)
	assert.Equal(t, 45.5, *obs.Latitude)
	assert.Equal(t, 5.25, *obs.Longitude)
	assert.Equal(t, 320, *obs.Altitude)
	assert.Equal(t, entity.GPS, obs.CoordinatesSystem)
}

func TestObservationValidator_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *observationRow)
		want   importer.Rejection
	}{
		{"unknown observer", func(r *observationRow) { r.observer = "Carol" }, importer.ErrObserverNotFound},
		{"unknown associate", func(r *observationRow) { r.associates = "Bob,Carol" }, importer.ErrAssociateNotFound},
		{"repeated associate", func(r *observationRow) { r.associates = "Bob, bob" }, importer.ErrRepeatedValue},
		{"iso date", func(r *observationRow) { r.date = "2024-05-12" }, importer.ErrInvalidDate},
		{"impossible date", func(r *observationRow) { r.date = "31/02/2024" }, importer.ErrInvalidDate},
		{"bad time", func(r *observationRow) { r.time = "25:00" }, importer.ErrInvalidTime},
		{"bad duration", func(r *observationRow) { r.duration = "1h" }, importer.ErrInvalidDuration},
		{"partial coordinates", func(r *observationRow) { r.latitude = "45" }, importer.ErrIncompleteCoordinates},
		{"latitude out of range", func(r *observationRow) {
			r.latitude, r.longitude, r.altitude = "91", "5", "100"
		}, importer.ErrInvalidLatitude},
		{"unknown department", func(r *observationRow) { r.department = "02" }, importer.ErrDepartmentNotFound},
		{"unknown town", func(r *observationRow) { r.town = "1000" }, importer.ErrTownNotFound},
		{"unknown locality", func(r *observationRow) { r.locality = "Lande" }, importer.ErrLocalityNotFound},
		{"unknown weather", func(r *observationRow) { r.weathers = "Neige" }, importer.ErrWeatherNotFound},
		{"unknown species", func(r *observationRow) { r.species = "PICVER" }, importer.ErrSpeciesNotFound},
		{"unknown sex", func(r *observationRow) { r.sex = "Femelle" }, importer.ErrSexNotFound},
		{"unknown age", func(r *observationRow) { r.age = "Juvénile" }, importer.ErrAgeNotFound},
		{"unknown number estimate", func(r *observationRow) { r.numberEstimate = "Environ" }, importer.ErrNumberEstimateNotFound},
		{"missing number", func(r *observationRow) { r.number = "" }, importer.ErrNumberRequired},
		{"zero number", func(r *observationRow) { r.number = "0" }, importer.ErrNumberRequired},
		{"number with non count estimate", func(r *observationRow) { r.numberEstimate = "non compte" }, importer.ErrNumberForbidden},
		{"unknown distance estimate", func(r *observationRow) { r.distanceEstimate = "Mesurée" }, importer.ErrDistanceEstimateNotFound},
		{"distance without estimate", func(r *observationRow) { r.distance = "20" }, importer.ErrDistanceWithoutEstimate},
		{"negative distance", func(r *observationRow) { r.distance = "-1" }, importer.ErrInvalidDistance},
		{"bad regroupment", func(r *observationRow) { r.regroupment = "x" }, importer.ErrInvalidRegroupment},
		{"too many behaviors", func(r *observationRow) { r.behaviors = "A1,A2,A3,A4,A5,A6,A7" }, importer.ErrTooManyBehaviors},
		{"unknown behavior", func(r *observationRow) { r.behaviors = "A1,Z9" }, importer.ErrBehaviorNotFound},
		{"repeated behavior", func(r *observationRow) { r.behaviors = "A1,a1" }, importer.ErrRepeatedValue},
		{"too many environments", func(r *observationRow) { r.environments = "E1,E2,E3,E4,E5" }, importer.ErrTooManyEnvironments},
		{"unknown environment", func(r *observationRow) { r.environments = "E9" }, importer.ErrEnvironmentNotFound},
		{"comment too long", func(r *observationRow) { r.comment = strings.Repeat("a", 1001) }, importer.ErrCommentTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newObservationValidator(t, observationFixture())
			row := validObservation()
			tt.modify(&row)

			err := v.ValidateAndPrepare(row.cells())
			require.ErrorIs(t, err, tt.want)
			assert.Zero(t, v.Pending())
		})
	}
}

func TestObservationValidator_OptionalFields(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *observationRow)
	}{
		{"no time nor duration", func(r *observationRow) { r.time, r.duration = "", "" }},
		{"no lists", func(r *observationRow) { r.associates, r.weathers, r.behaviors, r.environments = "", "", "", "" }},
		{"non count without number", func(r *observationRow) { r.numberEstimate, r.number = "Non compté", "" }},
		{"distance with estimate", func(r *observationRow) { r.distanceEstimate, r.distance = "estimee", "0" }},
		{"town by name", func(r *observationRow) { r.town = "sample town" }},
		{"max comment", func(r *observationRow) { r.comment = strings.Repeat("é", 1000) }},
		{"two behaviors", func(r *observationRow) { r.behaviors = "A1,A2" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newObservationValidator(t, observationFixture())
			row := validObservation()
			tt.modify(&row)

			require.NoError(t, v.ValidateAndPrepare(row.cells()))
			assert.Equal(t, 1, v.Pending())
		})
	}
}

func TestObservationValidator_Duplicates(t *testing.T) {
	f := observationFixture()
	morning := "07:30"
	three := 3
	f.observations.items = []entity.Observation{{
		ObserverID:       1,
		Date:             time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC),
		Time:             &morning,
		LocalityID:       100,
		SpeciesID:        7,
		SexID:            1,
		AgeID:            1,
		NumberEstimateID: 1,
		Number:           &three,
	}}
	v := newObservationValidator(t, f)

	require.ErrorIs(t, v.ValidateAndPrepare(validObservation().cells()), importer.ErrDuplicateObservation)

	other := validObservation()
	other.number = "4"
	require.NoError(t, v.ValidateAndPrepare(other.cells()))

	again := validObservation()
	again.number = "4"
	again.comment = "une autre remarque"
	require.ErrorIs(t, v.ValidateAndPrepare(again.cells()), importer.ErrDuplicateObservation)

	evening := validObservation()
	evening.number = "4"
	evening.time = "19:00"
	require.NoError(t, v.ValidateAndPrepare(evening.cells()))
	assert.Equal(t, 2, v.Pending())
}
