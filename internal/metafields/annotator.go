// Package metafields attaches auxiliary descriptive attributes to a
// published product, one metafield per key. Annotation is best-effort:
// individual failures are counted, never escalated.
package metafields

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// AnnotationError reports one key's failed attachment.
type AnnotationError struct {
	Key string
	Err error
}

func (e *AnnotationError) Error() string {
	return fmt.Sprintf("metafields: attaching %q: %v", e.Key, e.Err)
}

func (e *AnnotationError) Unwrap() error { return e.Err }

// API is the storefront metafield surface the annotator needs.
type API interface {
	AttachMetafield(ctx context.Context, productID int64, key, value string) error
}

// Annotator writes product metafields with an inter-call pause to stay
// under the platform's REST rate limit.
type Annotator struct {
	api   API
	pause time.Duration
	log   *zap.Logger
}

// NewAnnotator creates an annotator. pause is the delay between attach
// calls; zero disables it.
func NewAnnotator(api API, pause time.Duration, log *zap.Logger) *Annotator {
	return &Annotator{api: api, pause: pause, log: log}
}

// Annotate attaches one metafield per non-blank key/value pair. Keys are
// processed in sorted order so logs are deterministic. Returns how many
// attachments succeeded out of how many were attempted.
func (a *Annotator) Annotate(ctx context.Context, productID int64, fields map[string]string) (attached, attempted int) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if strings.TrimSpace(fields[key]) == "" {
			continue // blank values are skipped, not errors
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for i, key := range keys {
		if i > 0 && a.pause > 0 {
			time.Sleep(a.pause)
		}
		attempted++
		if err := a.api.AttachMetafield(ctx, productID, key, fields[key]); err != nil {
			annErr := &AnnotationError{Key: key, Err: err}
			a.log.Warn("metafield attach failed",
				zap.Int64("product_id", productID),
				zap.String("key", key),
				zap.Error(annErr),
			)
			continue
		}
		attached++
	}

	a.log.Info("metafields attached",
		zap.Int64("product_id", productID),
		zap.Int("attached", attached),
		zap.Int("attempted", attempted),
	)
	return attached, attempted
}
