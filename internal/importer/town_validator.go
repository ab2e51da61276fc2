package importer

import (
	"context"
	"strconv"
	"strings"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
)

const (
	maxTownNameLength = 100
	maxTownCode       = 65535
)

var townColumns = []string{"departmentCode", "townCode", "townName"}

type townValidator struct {
	departmentFinder Finder[entity.Department]
	departments      []entity.Department
	staging[entity.Town]
}

func newTownValidator(departments Finder[entity.Department], towns Store[entity.Town]) *townValidator {
	return &townValidator{
		departmentFinder: departments,
		staging:          staging[entity.Town]{store: towns},
	}
}

func (v *townValidator) NumberOfColumns() int { return len(townColumns) }

func (v *townValidator) Init(ctx context.Context, _ string) error {
	departments, err := loadAll(ctx, v.departmentFinder, "departments")
	if err != nil {
		return err
	}
	v.departments = departments
	return v.load(ctx, "towns")
}

func (v *townValidator) ValidateAndPrepare(row []string) error {
	code, ok := parseTownCode(row[1])
	if !ok {
		return ErrInvalidTownCode
	}
	name, err := requiredText(row[2], "Le nom de la commune", maxTownNameLength, ErrTownNameRequired)
	if err != nil {
		return err
	}

	department, ok := findDepartment(v.departments, row[0])
	if !ok {
		return ErrDepartmentNotFound
	}

	if v.any(func(t entity.Town) bool {
		return t.DepartmentID == department.ID && (t.Code == code || SameText(t.Name, name))
	}) {
		return ErrDuplicateTown
	}

	v.stage(entity.Town{DepartmentID: department.ID, Code: code, Name: name})
	return nil
}

func parseTownCode(raw string) (int, bool) {
	code, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || code < 1 || code > maxTownCode {
		return 0, false
	}
	return code, true
}

// findTown resolves a town of the department by its numeric code or by its name.
func findTown(towns []entity.Town, departmentID int64, codeOrName string) (entity.Town, bool) {
	code, isCode := parseTownCode(codeOrName)
	for _, t := range towns {
		if t.DepartmentID != departmentID {
			continue
		}
		if (isCode && t.Code == code) || SameText(t.Name, codeOrName) {
			return t, true
		}
	}
	return entity.Town{}, false
}
