package fixtures

import (
	"errors"
	"fmt"

	"github.com/florianilch/stepwise/internal/assistants"
)

var (
	// ErrNotFound is returned when an object id is unknown.
	ErrNotFound = errors.New("object not found")
	// ErrCursorNotFound is returned when an after/before cursor names no item
	// of the listing.
	ErrCursorNotFound = errors.New("cursor not found")
)

// CursorError reports a cursor parameter that names no item of the listing.
// It matches ErrCursorNotFound with errors.Is.
type CursorError struct {
	// Param is "after" or "before".
	Param  string
	Cursor string
}

func (e *CursorError) Error() string {
	return fmt.Sprintf("%s cursor %q: %v", e.Param, e.Cursor, ErrCursorNotFound)
}

func (e *CursorError) Unwrap() error {
	return ErrCursorNotFound
}

// Store holds fixture objects. It is read-only after construction and safe
// for concurrent use.
type Store struct {
	assistants []assistants.Assistant
	steps      []assistants.RunStep
}

// New creates a store from already decoded objects. Ids must be unique per
// kind; run steps are unique per thread and run.
func New(assistantList []assistants.Assistant, steps []assistants.RunStep) (*Store, error) {
	seen := make(map[string]struct{}, len(assistantList))
	for _, a := range assistantList {
		if _, ok := seen[a.ID]; ok {
			return nil, fmt.Errorf("duplicate assistant id %q", a.ID)
		}
		seen[a.ID] = struct{}{}
	}

	seen = make(map[string]struct{}, len(steps))
	for _, s := range steps {
		key := s.ThreadID + "/" + s.RunID + "/" + s.ID
		if _, ok := seen[key]; ok {
			return nil, fmt.Errorf("duplicate run step id %q in run %q", s.ID, s.RunID)
		}
		seen[key] = struct{}{}
	}

	return &Store{
		assistants: assistantList,
		steps:      steps,
	}, nil
}

// Counts returns the number of assistants and run steps held.
func (s *Store) Counts() (assistantCount, stepCount int) {
	return len(s.assistants), len(s.steps)
}

// ListAssistants returns one page of assistants.
func (s *Store) ListAssistants(params assistants.ListParams) (*assistants.List[assistants.Assistant], error) {
	return paginate(s.assistants, assistantCreatedAt, params)
}

// GetAssistant returns the assistant with the given id.
func (s *Store) GetAssistant(id string) (assistants.Assistant, error) {
	for _, a := range s.assistants {
		if a.ID == id {
			return a, nil
		}
	}
	return assistants.Assistant{}, fmt.Errorf("assistant %q: %w", id, ErrNotFound)
}

// ListRunSteps returns one page of the steps belonging to a run.
// An unknown thread or run yields an empty listing.
func (s *Store) ListRunSteps(threadID, runID string, params assistants.ListParams) (*assistants.List[assistants.RunStep], error) {
	var steps []assistants.RunStep
	for _, step := range s.steps {
		if step.ThreadID == threadID && step.RunID == runID {
			steps = append(steps, step)
		}
	}
	return paginate(steps, runStepCreatedAt, params)
}

// GetRunStep returns a single step of a run.
func (s *Store) GetRunStep(threadID, runID, stepID string) (assistants.RunStep, error) {
	for _, step := range s.steps {
		if step.ThreadID == threadID && step.RunID == runID && step.ID == stepID {
			return step, nil
		}
	}
	return assistants.RunStep{}, fmt.Errorf("run step %q: %w", stepID, ErrNotFound)
}

func assistantCreatedAt(a assistants.Assistant) int64 { return a.CreatedAt }

func runStepCreatedAt(s assistants.RunStep) int64 { return s.CreatedAt }
