package notification

import (
	"github.com/deobf-eval/trace-analysis/pkg/api/comparisonrun"
)

// ComparisonRunComplete is a struct representing the message sent to notify
// when the comparison of one case is complete.
type ComparisonRunComplete struct {
	Key comparisonrun.Key
}
