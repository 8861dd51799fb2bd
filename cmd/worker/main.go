package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"time"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/pubsub"
	_ "gocloud.dev/pubsub/gcppubsub"
	_ "gocloud.dev/pubsub/kafkapubsub"

	"github.com/deobf-eval/trace-analysis/internal/comparison"
	"github.com/deobf-eval/trace-analysis/internal/log"
	"github.com/deobf-eval/trace-analysis/internal/notification"
	"github.com/deobf-eval/trace-analysis/internal/resultstore"
	"github.com/deobf-eval/trace-analysis/internal/worker"
	"github.com/deobf-eval/trace-analysis/pkg/api/comparisonrun"
)

// variantPathKeys maps message metadata keys to the variant whose source they
// locate inside the sources bucket. Any key may be absent.
var variantPathKeys = map[string]comparisonrun.Variant{
	"original_path":     comparisonrun.VariantOriginal,
	"obfuscated_path":   comparisonrun.VariantObfuscated,
	"deobfuscated_path": comparisonrun.VariantDeobfuscated,
}

// copySourceToLocalFile stages one variant source from the sources bucket
// into localDir, preserving the .js extension the pipeline expects.
func copySourceToLocalFile(ctx context.Context, sourcesBucket *blob.Bucket, bucketPath, localDir string) (string, error) {
	if sourcesBucket == nil {
		return "", errors.New("sources bucket not set")
	}

	r, err := sourcesBucket.NewReader(ctx, bucketPath, nil)
	if err != nil {
		return "", err
	}
	defer r.Close()

	localPath := filepath.Join(localDir, filepath.Base(bucketPath))
	f, err := os.Create(localPath)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	return localPath, nil
}

func handleMessage(ctx context.Context, logger *slog.Logger, msg *pubsub.Message, runner *comparison.Runner, sourcesBucket *blob.Bucket, sourcesBucketURL string, resultStores worker.ResultStores, notificationTopic *pubsub.Topic) error {
	caseName := msg.Metadata["case"]
	if caseName == "" {
		logger.WarnContext(ctx, "case is empty")
		msg.Ack()
		return nil
	}

	resultsBucketOverride := msg.Metadata["results_bucket_override"]
	if resultsBucketOverride != "" {
		resultStores.Reports = resultstore.New(resultsBucketOverride, resultstore.ConstructPath())
	}

	worker.LogRequest(ctx, logger, caseName, sourcesBucketURL, resultsBucketOverride)

	stagingDir, err := os.MkdirTemp("", "trace-analysis-worker-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(stagingDir)

	c := comparison.Case{
		Key:   comparisonrun.Key{Case: caseName},
		Paths: make(map[comparisonrun.Variant]string),
	}
	for metaKey, variant := range variantPathKeys {
		bucketPath := msg.Metadata[metaKey]
		if bucketPath == "" {
			continue
		}
		localPath, err := copySourceToLocalFile(ctx, sourcesBucket, bucketPath, stagingDir)
		if err != nil {
			return fmt.Errorf("failed to stage %s: %w", metaKey, err)
		}
		c.Paths[variant] = localPath
	}

	result, err := runner.RunCase(ctx, logger, c)
	if err != nil {
		return err
	}
	worker.LogCaseResult(ctx, logger, result)

	if err := worker.SaveCaseData(ctx, logger, resultStores, result); err != nil {
		return err
	}

	if notificationTopic != nil {
		if err := notification.PublishCaseCompletion(ctx, notificationTopic, result.Key); err != nil {
			return err
		}
	}

	msg.Ack()
	return nil
}

func messageLoop(ctx context.Context, logger *slog.Logger, subURL, sourcesBucketURL, notificationTopicURL string, runner *comparison.Runner, resultStores worker.ResultStores) error {
	sub, err := pubsub.OpenSubscription(ctx, subURL)
	if err != nil {
		return err
	}

	// If no notification topic is configured, comparisons proceed with no
	// completion messages published.
	var notificationTopic *pubsub.Topic
	if notificationTopicURL != "" {
		notificationTopic, err = pubsub.OpenTopic(ctx, notificationTopicURL)
		if err != nil {
			return err
		}
		defer notificationTopic.Shutdown(ctx)
	}

	var sourcesBucket *blob.Bucket
	if sourcesBucketURL != "" {
		sourcesBucket, err = blob.OpenBucket(ctx, sourcesBucketURL)
		if err != nil {
			return err
		}
		defer sourcesBucket.Close()
	}

	logger.InfoContext(ctx, "Listening for messages to process...")
	for {
		msg, err := sub.Receive(ctx)
		if err != nil {
			// All subsequent receive calls will return the same error, so we bail out.
			return fmt.Errorf("error receiving message: %w", err)
		}

		if err := handleMessage(ctx, logger, msg, runner, sourcesBucket, sourcesBucketURL, resultStores, notificationTopic); err != nil {
			logger.ErrorContext(ctx, "Failed to process message", "error", err)
		}
	}
}

func main() {
	ctx := context.Background()
	logger := log.Initialize(os.Getenv("LOGGER_ENV"))

	subURL := os.Getenv("TRACE_ANALYSIS_WORKER_SUBSCRIPTION")
	sourcesBucketURL := os.Getenv("TRACE_ANALYSIS_SOURCES")
	notificationTopicURL := os.Getenv("TRACE_ANALYSIS_NOTIFICATION_TOPIC")
	enableProfiler := os.Getenv("TRACE_ANALYSIS_ENABLE_PROFILER")

	resultStores := worker.ResultStores{}
	if bucket := os.Getenv("TRACE_ANALYSIS_RESULTS"); bucket != "" {
		resultStores.Reports = resultstore.New(bucket, resultstore.ConstructPath())
	}
	if bucket := os.Getenv("TRACE_ANALYSIS_TRACE_DUMPS"); bucket != "" {
		resultStores.RawTraces = resultstore.New(bucket, resultstore.ConstructPath())
	}

	runner, err := worker.NewRunner(worker.Config{
		InstrumenterPath: envOrDefault("TRACE_ANALYSIS_INSTRUMENTER", "instrument.js"),
		InterpreterBin:   os.Getenv("TRACE_ANALYSIS_INTERPRETER"),
		Timeout:          envDuration("TRACE_ANALYSIS_TIMEOUT", 50*time.Second),
	})
	if err != nil {
		logger.Error("Worker is unusable", "error", err)
		os.Exit(1)
	}

	// If configured, start a webserver so that Go's pprof can be accessed for
	// debugging and profiling.
	if enableProfiler != "" {
		go func() {
			logger.Info("Starting profiler")
			http.ListenAndServe(":6060", nil)
		}()
	}

	// Log the configuration of the worker at startup so we can observe it.
	logger.Info("Starting worker",
		"subscription", subURL,
		"sources_bucket", sourcesBucketURL,
		"results_bucket", os.Getenv("TRACE_ANALYSIS_RESULTS"),
		"trace_dumps_bucket", os.Getenv("TRACE_ANALYSIS_TRACE_DUMPS"),
		"topic_notification", notificationTopicURL)

	if err := messageLoop(ctx, logger, subURL, sourcesBucketURL, notificationTopicURL, runner, resultStores); err != nil {
		logger.Error("Error encountered", "error", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
