package telemetry

import (
	"context"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Label keys attached to profiles. Keep this set low-cardinality: every
// distinct value combination creates a separate profile series in Pyroscope.
const (
	ProfilingLabelController = "controller"
	ProfilingLabelRoute      = "route"
	ProfilingLabelMethod     = "method"
	ProfilingLabelCompanyID  = "company_id"
)

// MaxLabelValueLength caps label values before they reach Pyroscope.
const MaxLabelValueLength = 128

// HighCardinalityLabels lists keys that must never become profile labels.
// Per-request and per-record identifiers would explode the series count.
var HighCardinalityLabels = map[string]bool{
	"user_id":    true,
	"request_id": true,
	"home_id":    true,
	"trace_id":   true,
	"span_id":    true,
	"session_id": true,
}

// WithProfilingLabels runs fn with the given labels attached to any profile
// samples collected during its execution. Labels are sanitized first: keys
// are normalized, high-cardinality keys are dropped, and values truncated.
// With no usable labels fn runs on the original context.
//
//	telemetry.WithProfilingLabels(ctx, map[string]string{
//		telemetry.ProfilingLabelController: "PublicationHandler",
//		telemetry.ProfilingLabelMethod:     "POST",
//	}, func(ctx context.Context) {
//		handler.PublishHome(ctx, req)
//	})
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := labelPairs(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// labelPairs flattens a label map into the alternating key/value slice
// pyroscope.Labels expects, applying sanitization along the way.
func labelPairs(labels map[string]string) []string {
	pairs := make([]string, 0, 2*len(labels))
	for key, value := range labels {
		key = sanitizeLabelKey(key)
		if key == "" || value == "" || HighCardinalityLabels[key] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		pairs = append(pairs, key, value)
	}
	return pairs
}

// sanitizeLabelKey lowercases the key and keeps only [a-z0-9_].
func sanitizeLabelKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range strings.ToLower(key) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}
