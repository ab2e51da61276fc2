package importer

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
)

const maxLabelLength = 100

var labelColumns = []string{"label"}

// labelValidator imports tables that only carry a label: observers, weathers,
// classes, sexes, ages and distance estimates.
type labelValidator struct {
	what      string
	duplicate Rejection
	staging[entity.Labeled]
}

func newLabelValidator(store Store[entity.Labeled], what string, duplicate Rejection) *labelValidator {
	return &labelValidator{
		what:      what,
		duplicate: duplicate,
		staging:   staging[entity.Labeled]{store: store},
	}
}

func (v *labelValidator) NumberOfColumns() int { return len(labelColumns) }

func (v *labelValidator) Init(ctx context.Context, _ string) error {
	return v.load(ctx, v.what)
}

func (v *labelValidator) ValidateAndPrepare(row []string) error {
	label, err := requiredText(row[0], "Le libellé", maxLabelLength, ErrLabelRequired)
	if err != nil {
		return err
	}

	if v.any(func(l entity.Labeled) bool { return SameText(l.Label, label) }) {
		return v.duplicate
	}

	v.stage(entity.Labeled{Label: label})
	return nil
}

// requiredText trims raw and checks it is present and not longer than limit runes.
func requiredText(raw, field string, limit int, missing Rejection) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", missing
	}
	if utf8.RuneCountInString(value) > limit {
		return "", tooLong(field, limit)
	}
	return value, nil
}

// findByLabel returns the first entry whose label matches raw.
func findByLabel[T any](items []T, raw string, label func(T) string) (T, bool) {
	for _, item := range items {
		if SameText(label(item), raw) {
			return item, true
		}
	}
	var zero T
	return zero, false
}
