package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/pin-pipeline/internal/pipeline/steps"
)

// Business errors. They end a run without a step prefix so the run's
// error_summary reads exactly as below.
var (
	ErrNoTopic       = errors.New("No topic candidates found")         //nolint:staticcheck // recorded verbatim as error_summary
	ErrAllTopicsUsed = errors.New("All candidate topics already used") //nolint:staticcheck // recorded verbatim as error_summary
)

// StepError annotates an adapter or ledger failure with the step it
// happened in.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %v", steps.Label(e.Step), e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func stepErr(step string, err error) error {
	if err == nil {
		return nil
	}
	var se *StepError
	if errors.As(err, &se) {
		return err
	}
	return &StepError{Step: step, Err: err}
}

// NoCreativeError is returned when every creative strategy failed.
type NoCreativeError struct {
	Reasons []string
}

func (e *NoCreativeError) Error() string {
	if len(e.Reasons) == 0 {
		return "no creative strategy produced an image"
	}
	return fmt.Sprintf("no creative strategy produced an image (%s)", strings.Join(e.Reasons, "; "))
}
