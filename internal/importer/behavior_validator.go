package importer

import (
	"context"
	"slices"
	"strings"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
)

const maxCodeLength = 10

var (
	behaviorColumns    = []string{"code", "label", "breeding"}
	environmentColumns = []string{"code", "label"}

	breedingStatuses = []string{"", "possible", "probable", "certain"}
)

type behaviorValidator struct {
	staging[entity.Behavior]
}

func newBehaviorValidator(store Store[entity.Behavior]) *behaviorValidator {
	return &behaviorValidator{staging: staging[entity.Behavior]{store: store}}
}

func (v *behaviorValidator) NumberOfColumns() int { return len(behaviorColumns) }

func (v *behaviorValidator) Init(ctx context.Context, _ string) error {
	return v.load(ctx, "behaviors")
}

func (v *behaviorValidator) ValidateAndPrepare(row []string) error {
	code, label, err := codeAndLabel(row[0], row[1])
	if err != nil {
		return err
	}
	breeding := strings.ToLower(strings.TrimSpace(row[2]))
	if !slices.Contains(breedingStatuses, breeding) {
		return ErrInvalidBreeding
	}

	if v.any(func(b entity.Behavior) bool { return SameText(b.Code, code) || SameText(b.Label, label) }) {
		return ErrDuplicateBehavior
	}

	v.stage(entity.Behavior{Code: code, Label: label, Breeding: breeding})
	return nil
}

type environmentValidator struct {
	staging[entity.Environment]
}

func newEnvironmentValidator(store Store[entity.Environment]) *environmentValidator {
	return &environmentValidator{staging: staging[entity.Environment]{store: store}}
}

func (v *environmentValidator) NumberOfColumns() int { return len(environmentColumns) }

func (v *environmentValidator) Init(ctx context.Context, _ string) error {
	return v.load(ctx, "environments")
}

func (v *environmentValidator) ValidateAndPrepare(row []string) error {
	code, label, err := codeAndLabel(row[0], row[1])
	if err != nil {
		return err
	}

	if v.any(func(e entity.Environment) bool { return SameText(e.Code, code) || SameText(e.Label, label) }) {
		return ErrDuplicateEnvironment
	}

	v.stage(entity.Environment{Code: code, Label: label})
	return nil
}

func codeAndLabel(rawCode, rawLabel string) (string, string, error) {
	code, err := requiredText(rawCode, "Le code", maxCodeLength, ErrCodeRequired)
	if err != nil {
		return "", "", err
	}
	label, err := requiredText(rawLabel, "Le libellé", maxLabelLength, ErrLabelRequired)
	if err != nil {
		return "", "", err
	}
	return code, label, nil
}
