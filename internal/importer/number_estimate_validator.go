package importer

import (
	"context"
	"strings"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
)

var numberEstimateColumns = []string{"label", "nonCount"}

type numberEstimateValidator struct {
	staging[entity.NumberEstimate]
}

func newNumberEstimateValidator(store Store[entity.NumberEstimate]) *numberEstimateValidator {
	return &numberEstimateValidator{staging: staging[entity.NumberEstimate]{store: store}}
}

func (v *numberEstimateValidator) NumberOfColumns() int { return len(numberEstimateColumns) }

func (v *numberEstimateValidator) Init(ctx context.Context, _ string) error {
	return v.load(ctx, "number estimates")
}

func (v *numberEstimateValidator) ValidateAndPrepare(row []string) error {
	label, err := requiredText(row[0], "Le libellé", maxLabelLength, ErrLabelRequired)
	if err != nil {
		return err
	}
	nonCount, ok := parseYesNo(row[1])
	if !ok {
		return ErrInvalidNonCount
	}

	if v.any(func(e entity.NumberEstimate) bool { return SameText(e.Label, label) }) {
		return ErrDuplicateNumberEstimate
	}

	v.stage(entity.NumberEstimate{Label: label, NonCount: nonCount})
	return nil
}

// parseYesNo reads oui/non, true/false or 1/0; an empty cell means no.
func parseYesNo(raw string) (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "oui", "true", "1":
		return true, true
	case "", "non", "false", "0":
		return false, true
	}
	return false, false
}
