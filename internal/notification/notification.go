package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"gocloud.dev/pubsub"

	"github.com/deobf-eval/trace-analysis/pkg/api/comparisonrun"
	"github.com/deobf-eval/trace-analysis/pkg/api/notification"
)

// PublishCaseCompletion notifies downstream consumers that the comparison for
// the given case has finished and its report is durable.
func PublishCaseCompletion(ctx context.Context, topic *pubsub.Topic, key comparisonrun.Key) error {
	msg, err := json.Marshal(notification.ComparisonRunComplete{Key: key})
	if err != nil {
		return fmt.Errorf("failed to encode completion notification: %w", err)
	}
	if err := topic.Send(ctx, &pubsub.Message{Body: msg}); err != nil {
		return fmt.Errorf("failed to send completion notification: %w", err)
	}
	return nil
}
