// Package message implements the framework's immutable Message value object
// and its trace-id plumbing.
package message

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lesfleursdelanuitdev/subsystem-core/errs"
)

// traceIDPattern matches a canonical UUID v4 string.
var traceIDPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// IsValidTraceID reports whether s matches the UUID v4 contract.
func IsValidTraceID(s string) bool {
	return traceIDPattern.MatchString(strings.ToLower(s))
}

// GenerateTraceID returns a fresh UUID v4 string.
func GenerateTraceID() string {
	return uuid.New().String()
}

// Meta carries a message's trace/correlation metadata. Meta is copied, never
// shared, by New, Message.Meta, WithCorrelationID and WithTag so that a Message's meta can never be mutated
// after construction.
type Meta struct {
	TraceID       string
	CorrelationID string
	Timestamp     time.Time
	Tags          map[string]string
}

func (m Meta) clone() Meta {
	out := m
	if m.Tags != nil {
		out.Tags = make(map[string]string, len(m.Tags))
		for k, v := range m.Tags {
			out.Tags[k] = v
		}
	}
	return out
}

// Message is the framework's immutable value object: path, body, and meta,
// produced once at construction and never mutated afterward. All fields are
// unexported; the only ways to obtain one are New, Factory.Create, and the
// WithCorrelationID/WithTag copies of an existing Message, and the only way
// to read it is through the accessor methods below.
type Message struct {
	path string
	body any
	meta Meta
}

// Options configures Message construction.
type Options struct {
	TraceID       string
	CorrelationID string
	Parent        *Message
	Tags          map[string]string
}

// New constructs a Message. path must be non-empty. Trace id resolution
// prefers an explicit TraceID, then inheritance from Parent, then falls
// back to a freshly generated UUID v4.
func New(path string, body any, opts Options) (*Message, error) {
	if path == "" {
		return nil, errs.New(errs.InvalidArgument, "message: path must be a non-empty string")
	}

	traceID := opts.TraceID
	if traceID == "" {
		if id, ok := InheritTraceID(opts.Parent); ok {
			traceID = id
		} else {
			traceID = GenerateTraceID()
		}
	}

	tags := make(map[string]string, len(opts.Tags))
	for k, v := range opts.Tags {
		tags[k] = v
	}

	return &Message{
		path: path,
		body: body,
		meta: Meta{
			TraceID:       traceID,
			CorrelationID: opts.CorrelationID,
			Timestamp:     time.Now().UTC(),
			Tags:          tags,
		},
	}, nil
}

// Path returns the message's route path.
func (m *Message) Path() string { return m.path }

// Body returns the message's payload.
func (m *Message) Body() any { return m.body }

// Meta returns an independent copy of the message's metadata.
func (m *Message) Meta() Meta { return m.meta.clone() }

// WithCorrelationID returns a new Message sharing path/body/trace but
// carrying a different correlation id — used by the Requests facet to stamp
// an outgoing request without mutating the original message.
func (m *Message) WithCorrelationID(correlationID string) *Message {
	meta := m.meta.clone()
	meta.CorrelationID = correlationID
	return &Message{path: m.path, body: m.body, meta: meta}
}

// WithTag returns a new Message with one additional tag set.
func (m *Message) WithTag(key, value string) *Message {
	meta := m.meta.clone()
	if meta.Tags == nil {
		meta.Tags = make(map[string]string, 1)
	}
	meta.Tags[key] = value
	return &Message{path: m.path, body: m.body, meta: meta}
}

// Factory mints Messages sharing common construction options, mirroring the
// spec's MessageFactory collaborator.
type Factory struct {
	defaults Options
}

// NewFactory creates a Factory. defaults apply to every Create call unless
// overridden by the call's own Options fields.
func NewFactory(defaults Options) *Factory {
	return &Factory{defaults: defaults}
}

// Create builds a Message, falling back to the factory's defaults for any
// zero-valued Options field.
func (f *Factory) Create(path string, body any, opts Options) (*Message, error) {
	if opts.TraceID == "" {
		opts.TraceID = f.defaults.TraceID
	}
	if opts.CorrelationID == "" {
		opts.CorrelationID = f.defaults.CorrelationID
	}
	if opts.Parent == nil {
		opts.Parent = f.defaults.Parent
	}
	if opts.Tags == nil {
		opts.Tags = f.defaults.Tags
	}
	return New(path, body, opts)
}

// InheritTraceID returns the trace id a child message should inherit from
// parent, if parent is non-nil and carries one.
func InheritTraceID(parent *Message) (string, bool) {
	if parent == nil {
		return "", false
	}
	if parent.meta.TraceID == "" {
		return "", false
	}
	return parent.meta.TraceID, true
}

// traceparentPattern matches the W3C traceparent header's fixed shape:
// version("00") - 32 hex trace-id - 16 hex parent-id - 2 hex flags.
var traceparentPattern = regexp.MustCompile(`^00-([0-9a-f]{32})-[0-9a-f]{16}-[0-9a-f]{2}$`)

// ExtractTraceIDFromHeaders extracts a trace id from request headers:
// X-Trace-Id wins over a W3C traceparent header.
func ExtractTraceIDFromHeaders(h http.Header) (string, bool) {
	if h == nil {
		return "", false
	}
	if v := h.Get("X-Trace-Id"); v != "" {
		return v, true
	}
	if v := h.Get("Traceparent"); v != "" {
		if m := traceparentPattern.FindStringSubmatch(strings.ToLower(v)); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// InjectTraceIDIntoHeaders writes X-Trace-Id into h unless it is already set.
func InjectTraceIDIntoHeaders(h http.Header, traceID string) {
	if h == nil || traceID == "" {
		return
	}
	if h.Get("X-Trace-Id") != "" {
		return
	}
	h.Set("X-Trace-Id", traceID)
}
