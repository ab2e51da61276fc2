package importer

import (
	"context"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
)

const maxDepartmentCodeLength = 100

var departmentColumns = []string{"code"}

type departmentValidator struct {
	staging[entity.Department]
}

func newDepartmentValidator(store Store[entity.Department]) *departmentValidator {
	return &departmentValidator{staging: staging[entity.Department]{store: store}}
}

func (v *departmentValidator) NumberOfColumns() int { return len(departmentColumns) }

func (v *departmentValidator) Init(ctx context.Context, _ string) error {
	return v.load(ctx, "departments")
}

func (v *departmentValidator) ValidateAndPrepare(row []string) error {
	code, err := requiredText(row[0], "Le code du département", maxDepartmentCodeLength, ErrCodeRequired)
	if err != nil {
		return err
	}

	if v.any(func(d entity.Department) bool { return SameText(d.Code, code) }) {
		return ErrDuplicateDepartment
	}

	v.stage(entity.Department{Code: code})
	return nil
}

func findDepartment(departments []entity.Department, code string) (entity.Department, bool) {
	return findByLabel(departments, code, func(d entity.Department) string { return d.Code })
}
