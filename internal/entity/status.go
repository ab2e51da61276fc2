package entity

import (
	"encoding/json"
	"time"
)

type ImportState string

const (
	StateNotStarted ImportState = "notStarted"
	StateOngoing    ImportState = "ongoing"
	StateCompleted  ImportState = "completed"
	StateFailed     ImportState = "failed"
)

type ImportStep string

const (
	StepProcessStarted         ImportStep = "processStarted"
	StepImportRetrieved        ImportStep = "importRetrieved"
	StepRetrievingRequiredData ImportStep = "retrievingRequiredData"
	StepValidatingInputFile    ImportStep = "validatingInputFile"
	StepInsertingImportedData  ImportStep = "insertingImportedData"
)

// ImportError is a rejected row together with the reason it was rejected.
type ImportError struct {
	Row     []string `json:"row"`
	Message string   `json:"message"`
}

// Cells returns the row with the message appended, as written in error reports.
func (e ImportError) Cells() []string {
	cells := make([]string, 0, len(e.Row)+1)
	cells = append(cells, e.Row...)
	return append(cells, e.Message)
}

// ImportStatus is a tagged union discriminated by State.
// Step is only set while Ongoing and Reason only when Failed.
type ImportStatus struct {
	State            ImportState   `json:"state"`
	Step             ImportStep    `json:"step,omitempty"`
	TotalLinesInFile int           `json:"totalLinesInFile"`
	ValidEntries     int           `json:"validEntries"`
	ValidatedEntries int           `json:"validatedEntries"`
	Errors           []ImportError `json:"errors,omitempty"`
	Reason           string        `json:"reason,omitempty"`
}

func NotStarted() ImportStatus {
	return ImportStatus{State: StateNotStarted}
}

func Ongoing(step ImportStep) ImportStatus {
	return ImportStatus{State: StateOngoing, Step: step}
}

// Progress is an Ongoing snapshot carrying the running counters.
func Progress(step ImportStep, total, valid, validated int, errs []ImportError) ImportStatus {
	return ImportStatus{
		State:            StateOngoing,
		Step:             step,
		TotalLinesInFile: total,
		ValidEntries:     valid,
		ValidatedEntries: validated,
		Errors:           errs,
	}
}

func Completed(total, valid, validated int, errs []ImportError) ImportStatus {
	if errs == nil {
		errs = []ImportError{}
	}
	return ImportStatus{
		State:            StateCompleted,
		TotalLinesInFile: total,
		ValidEntries:     valid,
		ValidatedEntries: validated,
		Errors:           errs,
	}
}

func Failed(reason string) ImportStatus {
	return ImportStatus{State: StateFailed, Reason: reason}
}

// MarshalJSON always writes the errors of a Completed status, as [] when there are none.
func (s ImportStatus) MarshalJSON() ([]byte, error) {
	type plain ImportStatus
	if s.State != StateCompleted {
		return json.Marshal(plain(s))
	}
	errs := s.Errors
	if errs == nil {
		errs = []ImportError{}
	}
	return json.Marshal(struct {
		plain
		Errors []ImportError `json:"errors"`
	}{plain(s), errs})
}

func (s ImportStatus) Terminal() bool {
	return s.State == StateCompleted || s.State == StateFailed
}

// StatusMessage is the envelope sent to progress sinks.
// Seq grows strictly within a run; consumers keep the highest one.
type StatusMessage struct {
	JobID     string       `json:"jobId"`
	Seq       int64        `json:"seq"`
	EmittedAt time.Time    `json:"emittedAt"`
	Status    ImportStatus `json:"status"`
}
