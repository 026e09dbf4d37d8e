package ingest

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/muhammadmuzzammil1998/jsonc"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"gait-logger/models"
	"gait-logger/utils"
)

//go:embed event_schema.json
var eventSchema string

const (
	schemaURL     = "event_schema.json"
	maxLineBytes  = 4 * 1024 * 1024
	defaultBuffer = 64
)

// Envelope is one decoded input line.
type Envelope struct {
	Event models.Event
	Delay time.Duration
}

// EventReader decodes host events, one JSON object per line (comments
// allowed), and emits them on Out. Lines that fail to parse or validate are
// logged and counted; accepted events are never dropped.
type EventReader struct {
	src      io.Reader
	schema   *jsonschema.Schema
	pace     bool
	log      *utils.Logger
	metrics  *utils.Metrics
	Out      chan models.Event
	produced uint64
	rejected uint64
}

// NewEventReader creates a reader over src. With pace set, each line's
// delay_ms is waited out before its event is emitted.
func NewEventReader(src io.Reader, buffer int, pace bool, log *utils.Logger, metrics *utils.Metrics) (*EventReader, error) {
	schema, err := CompileSchema()
	if err != nil {
		return nil, err
	}
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &EventReader{
		src:     src,
		schema:  schema,
		pace:    pace,
		log:     log,
		metrics: metrics,
		Out:     make(chan models.Event, buffer),
	}, nil
}

// CompileSchema compiles the embedded event envelope schema.
func CompileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(eventSchema)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

func (r *EventReader) Start(ctx context.Context) {
	go r.run(ctx)
	r.log.Info("event reader started", "buffer", cap(r.Out), "pace", r.pace)
}

func (r *EventReader) run(ctx context.Context) {
	defer close(r.Out)

	sc := bufio.NewScanner(r.src)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		env, ok, err := ParseLine(r.schema, raw)
		if err != nil {
			atomic.AddUint64(&r.rejected, 1)
			r.metrics.EventsRejected.WithLabelValues("unparsed", utils.KindValidation.String()).Inc()
			r.log.Warn("event line rejected", "line", line, "err", err)
			continue
		}
		if !ok {
			continue
		}

		if r.pace && env.Delay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(env.Delay):
			}
		}

		select {
		case <-ctx.Done():
			r.log.Info("event reader stopped", "produced", r.Produced(), "rejected", r.Rejected())
			return
		case r.Out <- env.Event:
			atomic.AddUint64(&r.produced, 1)
		}
	}
	if err := sc.Err(); err != nil {
		r.log.Error("event input failed", "line", line, "err", err)
	}
	r.log.Info("event input ended", "produced", r.Produced(), "rejected", r.Rejected())
}

// ParseLine decodes one input line. ok is false for lines holding only
// comments.
func ParseLine(schema *jsonschema.Schema, line []byte) (env Envelope, ok bool, err error) {
	raw := bytes.TrimSpace(jsonc.ToJSON(line))
	if len(raw) == 0 {
		return Envelope{}, false, nil
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Envelope{}, false, fmt.Errorf("decode event: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return Envelope{}, false, fmt.Errorf("invalid event: %w", err)
	}

	// Decode again with ordered mappings so dictionary arguments keep key order.
	v, err := models.DecodeJSON(raw)
	if err != nil {
		return Envelope{}, false, fmt.Errorf("decode event: %w", err)
	}
	obj, isObj := v.(models.Object)
	if !isObj {
		return Envelope{}, false, fmt.Errorf("event must be an object, got %T", v)
	}

	name, _ := obj.Get("event")
	env.Event.Name, _ = name.(string)
	if args, found := obj.Get("args"); found {
		env.Event.Args, _ = args.([]any)
	}
	if d, found := obj.Get("delay_ms"); found {
		if ms, isNum := models.AsFloat(d); isNum {
			env.Delay = time.Duration(ms * float64(time.Millisecond))
		}
	}
	return env, true, nil
}

func (r *EventReader) Produced() uint64 { return atomic.LoadUint64(&r.produced) }
func (r *EventReader) Rejected() uint64 { return atomic.LoadUint64(&r.rejected) }
