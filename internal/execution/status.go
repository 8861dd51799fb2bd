package execution

import (
	"encoding/json"

	"github.com/deobf-eval/trace-analysis/internal/sandbox"
)

// Status classifies the outcome of one variant execution attempt. Every
// status other than StatusCompleted is scored as trace absence; the statuses
// exist so the distinct failure modes stay visible in reports and logs.
type Status string

const (
	// StatusCompleted indicates the variant executed and its trace was parsed.
	StatusCompleted = Status("completed")

	// StatusErrorTimeout indicates the variant was forcibly terminated at the
	// execution deadline. Partial output is discarded.
	StatusErrorTimeout = Status("error_timeout")

	// StatusErrorRun indicates the variant's process reported a runtime fault
	// (non-zero exit).
	StatusErrorRun = Status("error_run")

	// StatusErrorInstrument indicates the instrumentation step failed for
	// this variant's source unit.
	StatusErrorInstrument = Status("error_instrument")

	// StatusMissingVariant indicates no source unit was found for the
	// variant. Absence is a first-class state, not an error.
	StatusMissingVariant = Status("missing_variant")

	// StatusErrorOther indicates an error during some part of the execution
	// attempt excluding errors covered by other statuses.
	StatusErrorOther = Status("error_other")
)

// MarshalJSON implements the json.Marshaler interface.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

func StatusForRunResult(r *sandbox.RunResult) Status {
	switch r.Status() {
	case sandbox.RunStatusSuccess:
		return StatusCompleted
	case sandbox.RunStatusFailure:
		return StatusErrorRun
	case sandbox.RunStatusTimeout:
		return StatusErrorTimeout
	default:
		return StatusErrorOther
	}
}
