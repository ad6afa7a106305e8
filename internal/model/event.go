package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Recognized event discriminators. Other values pass through the broadcast
// untouched; the reconciler ignores them.
const (
	KindOrderEvent = "order_event"
	KindTrade      = "trade"
	KindStatus     = "status"
	KindHello      = "hello"
)

// msThreshold separates second-resolution timestamps from millisecond ones.
// Anything below it is assumed to be seconds and scaled up.
const msThreshold = 1e12

// RawEvent is one decoded feed frame: a discriminator plus a bag of
// loosely-typed fields. It is not retained beyond the fold step.
type RawEvent struct {
	Kind   string
	fields map[string]any
}

// DecodeEvent parses a frame payload into a RawEvent. It returns false for
// malformed JSON or payloads that are not objects; such frames are dropped
// by the caller without affecting connection state.
func DecodeEvent(data []byte) (RawEvent, bool) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return RawEvent{}, false
	}

	e := RawEvent{fields: fields}
	// The producer writes "type"; older variants wrote "kind".
	e.Kind = e.Str("type", "kind")
	return e, true
}

// Str returns the first present key coerced to a string, or "" if none of
// the keys are present. Numbers are formatted (numeric ids arrive as JSON
// numbers from some producer versions).
func (e RawEvent) Str(keys ...string) string {
	for _, k := range keys {
		v, ok := e.fields[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			return t
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(t)
		}
	}
	return ""
}

// Num returns the first present key coerced to a float64. Missing, null,
// and non-numeric values coerce to 0.
func (e RawEvent) Num(keys ...string) float64 {
	for _, k := range keys {
		v, ok := e.fields[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case float64:
			return t
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
				return f
			}
			return 0
		}
		return 0
	}
	return 0
}

// Side returns the event's side normalized to BUY/SELL. Absent or
// unrecognized values default to BUY.
func (e RawEvent) Side() string {
	switch strings.ToUpper(e.Str("side")) {
	case SideSell:
		return SideSell
	default:
		return SideBuy
	}
}

// Status returns the order status for an order_event frame, upper-cased.
// The specific event-type field ("evt") wins over the generic "status"
// field when both are present. Absent values default to NEW.
func (e RawEvent) Status() string {
	s := strings.ToUpper(e.Str("evt"))
	if s == "" {
		s = strings.ToUpper(e.Str("status"))
	}
	if s == "" {
		return StatusNew
	}
	return s
}

// Timestamp returns the event time in ms since epoch, scaling up values
// that look like seconds. nowMS is used when the frame carries no usable
// timestamp.
func (e RawEvent) Timestamp(nowMS int64) int64 {
	ts := e.Num("ts", "time", "T")
	if ts <= 0 {
		return nowMS
	}
	if ts < msThreshold {
		return int64(ts * 1000)
	}
	return int64(ts)
}
