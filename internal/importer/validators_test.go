package importer_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
	"github.com/alexandresoro/ouca-sub007/internal/importer"
)

func messages(errs []entity.ImportError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Message)
	}
	return out
}

func TestLabelValidators_DuplicateMessages(t *testing.T) {
	tests := []struct {
		typ   entity.EntityType
		store func(f *fixture) *memStore[entity.Labeled]
		want  importer.Rejection
	}{
		{entity.TypeObserver, func(f *fixture) *memStore[entity.Labeled] { return &f.observers }, importer.ErrDuplicateObserver},
		{entity.TypeWeather, func(f *fixture) *memStore[entity.Labeled] { return &f.weathers }, importer.ErrDuplicateWeather},
		{entity.TypeClass, func(f *fixture) *memStore[entity.Labeled] { return &f.classes }, importer.ErrDuplicateClass},
		{entity.TypeSex, func(f *fixture) *memStore[entity.Labeled] { return &f.sexes }, importer.ErrDuplicateSex},
		{entity.TypeAge, func(f *fixture) *memStore[entity.Labeled] { return &f.ages }, importer.ErrDuplicateAge},
		{entity.TypeDistanceEstimate, func(f *fixture) *memStore[entity.Labeled] { return &f.distanceEstimates }, importer.ErrDuplicateDistanceEstimate},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			f := &fixture{}
			tt.store(f).items = []entity.Labeled{{ID: 1, Label: "Existant"}}

			status, _, err := runImport(f, tt.typ, "existant\nNouveau\n")
			require.NoError(t, err)

			assert.Equal(t, []string{tt.want.Error()}, messages(status.Errors))
			require.Len(t, tt.store(f).created, 1)
			assert.Equal(t, []entity.Labeled{{Label: "Nouveau"}}, tt.store(f).created[0])
		})
	}
}

func TestLabelValidator_LabelTooLong(t *testing.T) {
	f := &fixture{}
	status, _, err := runImport(f, entity.TypeObserver, strings.Repeat("é", 101)+"\n"+strings.Repeat("é", 100)+"\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"Le libellé ne peut pas dépasser 100 caractères"}, messages(status.Errors))
	assert.Equal(t, 1, status.ValidatedEntries)
}

func TestDepartmentValidator(t *testing.T) {
	f := &fixture{}
	f.departments.items = []entity.Department{{ID: 1, Code: "01"}}

	status, _, err := runImport(f, entity.TypeDepartment, "01\n38\n38 \n\"\"\n")
	require.NoError(t, err)

	// The quoted empty cell is a row of its own and fails the required check.
	assert.Equal(t, 4, status.TotalLinesInFile)
	assert.Equal(t, []string{
		importer.ErrDuplicateDepartment.Error(),
		importer.ErrDuplicateDepartment.Error(),
		importer.ErrCodeRequired.Error(),
	}, messages(status.Errors))
	assert.Equal(t, []entity.Department{{Code: "38"}}, f.departments.created[0])
}

func TestTownValidator_DuplicateCodeInSameFile(t *testing.T) {
	f := &fixture{}
	f.departments.items = []entity.Department{{ID: 1, Code: "01"}, {ID: 2, Code: "02"}}

	status, _, err := runImport(f, entity.TypeTown, "01;999;Sample Town\n01;999;Other Name\n02;999;Other Name\n")
	require.NoError(t, err)

	require.Len(t, status.Errors, 1)
	assert.Equal(t, []string{"01", "999", "Other Name"}, status.Errors[0].Row)
	assert.Equal(t, importer.ErrDuplicateTown.Error(), status.Errors[0].Message)
	assert.Equal(t, []entity.Town{
		{DepartmentID: 1, Code: 999, Name: "Sample Town"},
		{DepartmentID: 2, Code: 999, Name: "Other Name"},
	}, f.towns.created[0])
}

func TestTownValidator_Rules(t *testing.T) {
	f := &fixture{}
	f.departments.items = []entity.Department{{ID: 1, Code: "01"}}
	f.towns.items = []entity.Town{{ID: 5, DepartmentID: 1, Code: 10, Name: "Saint-Étienne"}}

	content := strings.Join([]string{
		"01;11;saint-etienne",
		"01;0;Zéro",
		"01;abc;Lettres",
		"01;70000;Trop grand",
		"01;12;",
		"99;13;Ailleurs",
		"99;abc;Ailleurs",
		"01;14;Valide",
	}, "\n")
	status, _, err := runImport(f, entity.TypeTown, content)
	require.NoError(t, err)

	assert.Equal(t, []string{
		importer.ErrDuplicateTown.Error(),
		importer.ErrInvalidTownCode.Error(),
		importer.ErrInvalidTownCode.Error(),
		importer.ErrInvalidTownCode.Error(),
		importer.ErrTownNameRequired.Error(),
		importer.ErrDepartmentNotFound.Error(),
		importer.ErrInvalidTownCode.Error(),
	}, messages(status.Errors))
	assert.Equal(t, 1, status.ValidatedEntries)
}

func TestLocalityValidator(t *testing.T) {
	f := &fixture{}
	f.departments.items = []entity.Department{{ID: 1, Code: "01"}}
	f.towns.items = []entity.Town{{ID: 10, DepartmentID: 1, Code: 999, Name: "Sample Town"}}
	f.localities.items = []entity.Locality{{ID: 100, TownID: 10, Name: "Le Bois"}}

	content := strings.Join([]string{
		"01;999;Étang;45,123456789;5.2;300",
		"01;sample town;etang;45;5;200",
		"01;999;le bois;45;5;200",
		"01;999;Pré;45;5",
		"02;999;Pré;45;5;200",
		"01;Unknown;Pré;45;5;200",
		"01;999;Pré;95;5;200",
		"01;999;Pré;45;-181;200",
		"01;999;Pré;45;5;haut",
		"01;999;;45;5;200",
		"01;999;Pré;-45.5;179;0",
	}, "\n")
	status, _, err := runImport(f, entity.TypeLocality, content)
	require.NoError(t, err)

	assert.Equal(t, []string{
		importer.ErrDuplicateLocality.Error(),
		importer.ErrDuplicateLocality.Error(),
		"Le nombre de colonnes de cette ligne est incorrect: 5 colonne(s) au lieu de 6 attendue(s)",
		importer.ErrDepartmentNotFound.Error(),
		importer.ErrTownNotFound.Error(),
		importer.ErrInvalidLatitude.Error(),
		importer.ErrInvalidLongitude.Error(),
		importer.ErrInvalidAltitude.Error(),
		importer.ErrLocalityNameRequired.Error(),
	}, messages(status.Errors))

	require.Len(t, f.localities.created, 1)
	assert.Equal(t, []entity.Locality{
		{TownID: 10, Name: "Étang", Latitude: 45.123457, Longitude: 5.2, Altitude: 300, CoordinatesSystem: entity.GPS},
		{TownID: 10, Name: "Pré", Latitude: -45.5, Longitude: 179, Altitude: 0, CoordinatesSystem: entity.GPS},
	}, f.localities.created[0])
}

func TestLocalityValidator_Lambert93(t *testing.T) {
	f := &fixture{settings: fakeSettings{system: entity.Lambert93}}
	f.departments.items = []entity.Department{{ID: 1, Code: "38"}}
	f.towns.items = []entity.Town{{ID: 10, DepartmentID: 1, Code: 185, Name: "Grenoble"}}

	status, _, err := runImport(f, entity.TypeLocality, "38;185;Bastille;6458000,5;914000;480\n38;185;Ailleurs;45.1;5.7;200\n")
	require.NoError(t, err)

	assert.Equal(t, []string{importer.ErrInvalidLatitude.Error()}, messages(status.Errors))
	assert.Equal(t, entity.Lambert93, f.localities.created[0][0].CoordinatesSystem)
	assert.InDelta(t, 6458000.5, f.localities.created[0][0].Latitude, 1e-9)
}

func TestLocalityValidator_SettingsFailure(t *testing.T) {
	f := &fixture{settings: fakeSettings{err: context.DeadlineExceeded}}
	status, _, err := runImport(f, entity.TypeLocality, "38;185;Bastille;45;5;480\n")
	require.NoError(t, err)

	assert.Equal(t, entity.Failed(importer.ReasonReferenceDataMissing), status)
}

func TestSpeciesValidator(t *testing.T) {
	f := &fixture{}
	f.classes.items = []entity.Labeled{{ID: 3, Label: "Oiseaux"}}
	f.species.items = []entity.Species{{ID: 1, ClassID: 3, Code: "MERNOI", FrenchName: "Merle noir", LatinName: "Turdus merula"}}

	content := strings.Join([]string{
		"oiseaux;mernoi;Merle;Turdus",
		"oiseaux;MESBLE;merle NOIR;Parus",
		"oiseaux;MESBLE;Mésange;turdus MERULA",
		"Mammifères;HERISS;Hérisson;Erinaceus europaeus",
		"oiseaux;;Sans code;Nullus",
		"oiseaux;ROUGOR;Rougegorge;",
		"Oiseaux;MESBLE;Mésange bleue;Cyanistes caeruleus",
	}, "\n")
	status, _, err := runImport(f, entity.TypeSpecies, content)
	require.NoError(t, err)

	assert.Equal(t, []string{
		importer.ErrDuplicateSpeciesCode.Error(),
		importer.ErrDuplicateSpeciesFrench.Error(),
		importer.ErrDuplicateSpeciesLatin.Error(),
		importer.ErrClassNotFound.Error(),
		importer.ErrSpeciesCodeRequired.Error(),
		importer.ErrSpeciesNameRequired.Error(),
	}, messages(status.Errors))
	assert.Equal(t, []entity.Species{
		{ClassID: 3, Code: "MESBLE", FrenchName: "Mésange bleue", LatinName: "Cyanistes caeruleus"},
	}, f.species.created[0])
}

func TestNumberEstimateValidator(t *testing.T) {
	f := &fixture{}
	status, _, err := runImport(f, entity.TypeNumberEstimate, "Non compté;oui\nEnviron;\nExact;non\nexact;0\nDouteux;peut-être\n")
	require.NoError(t, err)

	assert.Equal(t, []string{
		importer.ErrDuplicateNumberEstimate.Error(),
		importer.ErrInvalidNonCount.Error(),
	}, messages(status.Errors))
	assert.Equal(t, []entity.NumberEstimate{
		{Label: "Non compté", NonCount: true},
		{Label: "Environ"},
		{Label: "Exact"},
	}, f.numberEstimates.created[0])
}

func TestNumberEstimateValidator_NonCountValues(t *testing.T) {
	f := &fixture{}
	status, _, err := runImport(f, entity.TypeNumberEstimate, "A;OUI\nB;true\nC;1\nD; Non \nE;FALSE\nF;yes\nG;x\nH;n\nI;no\n")
	require.NoError(t, err)

	assert.Equal(t, []string{
		importer.ErrInvalidNonCount.Error(),
		importer.ErrInvalidNonCount.Error(),
		importer.ErrInvalidNonCount.Error(),
		importer.ErrInvalidNonCount.Error(),
	}, messages(status.Errors))
	assert.Equal(t, []entity.NumberEstimate{
		{Label: "A", NonCount: true},
		{Label: "B", NonCount: true},
		{Label: "C", NonCount: true},
		{Label: "D"},
		{Label: "E"},
	}, f.numberEstimates.created[0])
}

func TestBehaviorValidator(t *testing.T) {
	f := &fixture{}
	f.behaviors.items = []entity.Behavior{{ID: 1, Code: "C1", Label: "Chant"}}

	status, _, err := runImport(f, entity.TypeBehavior, "c1;Autre;\nC2;chant;\nC3;Nid occupé;Certain\nC4;Vol;peut-être\nCODE-TROP-LONG;Long;\n")
	require.NoError(t, err)

	assert.Equal(t, []string{
		importer.ErrDuplicateBehavior.Error(),
		importer.ErrDuplicateBehavior.Error(),
		importer.ErrInvalidBreeding.Error(),
		"Le code ne peut pas dépasser 10 caractères",
	}, messages(status.Errors))
	assert.Equal(t, []entity.Behavior{{Code: "C3", Label: "Nid occupé", Breeding: "certain"}}, f.behaviors.created[0])
}

func TestEnvironmentValidator(t *testing.T) {
	f := &fixture{}
	status, _, err := runImport(f, entity.TypeEnvironment, "E1;Forêt\ne1;Lande\nE2;foret\nE3;\n")
	require.NoError(t, err)

	assert.Equal(t, []string{
		importer.ErrDuplicateEnvironment.Error(),
		importer.ErrDuplicateEnvironment.Error(),
		importer.ErrLabelRequired.Error(),
	}, messages(status.Errors))
	assert.Equal(t, []entity.Environment{{Code: "E1", Label: "Forêt"}}, f.environments.created[0])
}
