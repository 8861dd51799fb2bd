// Package resultstore persists the durable artifacts of a comparison run —
// per-case reports, raw trace dumps and the run summary — to a gocloud blob
// bucket, so local runs (file://) and hosted runs (gs://, s3://) share one
// code path. Artifacts are written once and never mutated.
package resultstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/deobf-eval/trace-analysis/pkg/api/comparisonrun"
)

type ResultStore struct {
	bucket        string
	basePath      string
	constructPath bool
}

type (
	Option interface{ set(*ResultStore) }
	option func(*ResultStore) // option implements Option.
)

func (o option) set(rs *ResultStore) { o(rs) }

// ConstructPath will cause Save() to append the case name to the base path,
// giving each case its own directory of artifacts.
func ConstructPath() Option {
	return option(func(rs *ResultStore) { rs.constructPath = true })
}

// BasePath sets the base path used while saving files to storage.
func BasePath(base string) Option {
	return option(func(rs *ResultStore) { rs.basePath = base })
}

func New(bucket string, options ...Option) *ResultStore {
	rs := &ResultStore{
		bucket: bucket,
	}
	for _, o := range options {
		o.set(rs)
	}
	return rs
}

func (rs *ResultStore) String() string {
	s := rs.bucket + "/" + rs.basePath
	if rs.constructPath {
		s += "+"
	}
	return s
}

func (rs *ResultStore) openBucket(ctx context.Context) (*blob.Bucket, error) {
	return blob.OpenBucket(ctx, rs.bucket)
}

func (rs *ResultStore) generatePath(k comparisonrun.Key) string {
	path := rs.basePath
	if rs.constructPath {
		path = filepath.Join(path, k.Case)
	}
	return path
}

// SaveWithFilename saves data for the given case under the given filename,
// wrapped in the standard Record envelope.
func (rs *ResultStore) SaveWithFilename(ctx context.Context, logger *slog.Logger, k comparisonrun.Key, filename string, data any) error {
	if filename == "" {
		return errors.New("filename cannot be empty")
	}

	record := &comparisonrun.Record{
		Case:             k,
		CreatedTimestamp: time.Now().UTC().Unix(),
		Comparison:       data,
	}

	b, err := json.Marshal(record)
	if err != nil {
		return err
	}

	bkt, err := rs.openBucket(ctx)
	if err != nil {
		return err
	}
	defer bkt.Close()

	uploadPath := filepath.Join(rs.generatePath(k), filename)
	logger.InfoContext(ctx, "Uploading results",
		"bucket", rs.bucket,
		"path", uploadPath)

	w, err := bkt.NewWriter(ctx, uploadPath, nil)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return nil
}

// MakeFilename returns the default filename for saving case artifacts, using
// an optional label: "<label>-<case>.json", or "<case>.json" when label is
// empty.
func MakeFilename(k comparisonrun.Key, label string) string {
	prefix := k.Case
	if label != "" {
		prefix = label + "-" + k.Case
	}
	return prefix + ".json"
}

// SaveCaseReport saves the comparison report for one case.
func (rs *ResultStore) SaveCaseReport(ctx context.Context, logger *slog.Logger, k comparisonrun.Key, report comparisonrun.ComparisonReport) error {
	return rs.SaveWithFilename(ctx, logger, k, MakeFilename(k, ""), report)
}

// SaveRawTrace saves the raw trace records recovered for one (case, variant)
// execution. records may be a nil slice for an absent variant.
func (rs *ResultStore) SaveRawTrace(ctx context.Context, logger *slog.Logger, k comparisonrun.Key, variant comparisonrun.Variant, records any) error {
	return rs.SaveWithFilename(ctx, logger, k, MakeFilename(k, "trace-"+variant.String()), records)
}

// SaveRunSummary saves the run-level summary. Summaries are keyed by their
// creation timestamp so successive runs against one bucket never clobber
// each other.
func (rs *ResultStore) SaveRunSummary(ctx context.Context, logger *slog.Logger, summary comparisonrun.RunSummary) error {
	filename := fmt.Sprintf("summary-%d.json", summary.CreatedTimestamp)

	b, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	bkt, err := rs.openBucket(ctx)
	if err != nil {
		return err
	}
	defer bkt.Close()

	uploadPath := filepath.Join(rs.basePath, filename)
	logger.InfoContext(ctx, "Uploading run summary",
		"bucket", rs.bucket,
		"path", uploadPath)

	w, err := bkt.NewWriter(ctx, uploadPath, nil)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	return w.Close()
}
