package importer_test

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
	"github.com/alexandresoro/ouca-sub007/internal/importer"
)

const requester = "user-1"

var jobID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

type memStore[T any] struct {
	items     []T
	findErr   error
	createErr error

	created [][]T
	owner   string
}

func (s *memStore[T]) FindAll(ctx context.Context) ([]T, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return append([]T(nil), s.items...), nil
}

func (s *memStore[T]) BulkCreate(ctx context.Context, records []T, ownerID string) error {
	s.created = append(s.created, append([]T(nil), records...))
	s.owner = ownerID
	return s.createErr
}

type fakeSettings struct {
	system entity.CoordinatesSystem
	err    error
}

func (s fakeSettings) CoordinatesSystem(ctx context.Context, userID string) (entity.CoordinatesSystem, error) {
	return s.system, s.err
}

type fixture struct {
	observers         memStore[entity.Labeled]
	weathers          memStore[entity.Labeled]
	classes           memStore[entity.Labeled]
	sexes             memStore[entity.Labeled]
	ages              memStore[entity.Labeled]
	distanceEstimates memStore[entity.Labeled]
	numberEstimates   memStore[entity.NumberEstimate]
	departments       memStore[entity.Department]
	towns             memStore[entity.Town]
	localities        memStore[entity.Locality]
	species           memStore[entity.Species]
	behaviors         memStore[entity.Behavior]
	environments      memStore[entity.Environment]
	observations      memStore[entity.Observation]
	settings          fakeSettings
}

func (f *fixture) deps() importer.Deps {
	return importer.Deps{
		Observers:         &f.observers,
		Weathers:          &f.weathers,
		Classes:           &f.classes,
		Sexes:             &f.sexes,
		Ages:              &f.ages,
		DistanceEstimates: &f.distanceEstimates,
		NumberEstimates:   &f.numberEstimates,
		Departments:       &f.departments,
		Towns:             &f.towns,
		Localities:        &f.localities,
		Species:           &f.species,
		Behaviors:         &f.behaviors,
		Environments:      &f.environments,
		Observations:      &f.observations,
		Settings:          f.settings,
	}
}

type memUploads map[string][]byte

func (u memUploads) Get(ctx context.Context, id string) ([]byte, error) {
	return u[id], nil
}

type failingUploads struct{}

func (failingUploads) Get(ctx context.Context, id string) ([]byte, error) {
	return nil, errors.New("disk unavailable")
}

type recorder struct {
	statuses []entity.ImportStatus
}

func (r *recorder) Report(ctx context.Context, s entity.ImportStatus) {
	r.statuses = append(r.statuses, s)
}

func (r *recorder) last() entity.ImportStatus {
	return r.statuses[len(r.statuses)-1]
}

// spyValidator accepts every row and counts the calls it receives.
type spyValidator struct {
	columns    int
	initErr    error
	persistErr error
	reject     map[string]error

	rows     [][]string
	pending  int
	persists int
}

func (v *spyValidator) NumberOfColumns() int { return v.columns }

func (v *spyValidator) Init(ctx context.Context, requesterID string) error { return v.initErr }

func (v *spyValidator) ValidateAndPrepare(row []string) error {
	v.rows = append(v.rows, row)
	if err, ok := v.reject[row[0]]; ok {
		return err
	}
	v.pending++
	return nil
}

func (v *spyValidator) Pending() int { return v.pending }

func (v *spyValidator) Persist(ctx context.Context, requesterID string) error {
	v.persists++
	return v.persistErr
}

func importJob(t entity.EntityType) entity.ImportJob {
	return entity.ImportJob{ID: jobID, EntityType: t, RequesterID: requester}
}

func runImport(f *fixture, t entity.EntityType, content string) (entity.ImportStatus, *recorder, error) {
	v, err := importer.New(t, f.deps())
	if err != nil {
		return entity.ImportStatus{}, nil, err
	}
	rec := &recorder{}
	p := importer.NewPipeline(memUploads{jobID.String(): []byte(content)}, nil, nil)
	status, err := p.Run(context.Background(), importJob(t), v, rec)
	return status, rec, err
}
