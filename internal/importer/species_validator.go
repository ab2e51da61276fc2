package importer

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
)

const (
	maxSpeciesCodeLength = 20
	maxSpeciesNameLength = 200
)

var speciesColumns = []string{"className", "code", "frenchName", "latinName"}

type speciesValidator struct {
	classFinder Finder[entity.Labeled]
	classes     []entity.Labeled
	staging[entity.Species]
}

func newSpeciesValidator(classes Finder[entity.Labeled], species Store[entity.Species]) *speciesValidator {
	return &speciesValidator{
		classFinder: classes,
		staging:     staging[entity.Species]{store: species},
	}
}

func (v *speciesValidator) NumberOfColumns() int { return len(speciesColumns) }

func (v *speciesValidator) Init(ctx context.Context, _ string) error {
	classes, err := loadAll(ctx, v.classFinder, "classes")
	if err != nil {
		return err
	}
	v.classes = classes
	return v.load(ctx, "species")
}

func (v *speciesValidator) ValidateAndPrepare(row []string) error {
	code, err := requiredText(row[1], "Le code de l'espèce", maxSpeciesCodeLength, ErrSpeciesCodeRequired)
	if err != nil {
		return err
	}
	frenchName := strings.TrimSpace(row[2])
	latinName := strings.TrimSpace(row[3])
	if frenchName == "" || latinName == "" {
		return ErrSpeciesNameRequired
	}
	if utf8.RuneCountInString(frenchName) > maxSpeciesNameLength || utf8.RuneCountInString(latinName) > maxSpeciesNameLength {
		return tooLong("Le nom de l'espèce", maxSpeciesNameLength)
	}

	class, ok := findByLabel(v.classes, row[0], func(c entity.Labeled) string { return c.Label })
	if !ok {
		return ErrClassNotFound
	}

	switch {
	case v.any(func(s entity.Species) bool { return SameText(s.Code, code) }):
		return ErrDuplicateSpeciesCode
	case v.any(func(s entity.Species) bool { return SameText(s.FrenchName, frenchName) }):
		return ErrDuplicateSpeciesFrench
	case v.any(func(s entity.Species) bool { return SameText(s.LatinName, latinName) }):
		return ErrDuplicateSpeciesLatin
	}

	v.stage(entity.Species{
		ClassID:    class.ID,
		Code:       code,
		FrenchName: frenchName,
		LatinName:  latinName,
	})
	return nil
}
