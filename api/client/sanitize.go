package client

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// EpochMillisThreshold separates epoch seconds from epoch milliseconds: values
// below it are seconds. Timestamps close to the threshold are ambiguous; the
// threshold must not change because servers rely on this exact split.
const EpochMillisThreshold = 1e11

// ISOLayout is the canonical outbound timestamp format (UTC, millisecond precision).
const ISOLayout = "2006-01-02T15:04:05.000Z"

// dateFields are the body keys normalized to ISOLayout on write.
var dateFields = map[string]bool{
	"created_at": true, "createdAt": true,
	"updated_at": true, "updatedAt": true,
	"start_date": true, "startDate": true,
	"end_date": true, "endDate": true,
	"due_date": true, "dueDate": true,
	"paid_at": true, "paidAt": true,
	"sent_at": true, "sentAt": true,
	"valid_until": true, "validUntil": true,
	"published_at": true, "publishedAt": true,
	"verified_at": true, "verifiedAt": true,
}

// serverOwnedFields are removed from PUT bodies so a client cannot reassign
// ownership or rewrite creation history.
var serverOwnedFields = []string{"id", "user_id", "userId", "created_at", "createdAt"}

var inputLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02",
}

// Sanitizer prepares request bodies for POST and PUT.
type Sanitizer struct {
	// Now supplies the fallback timestamp for unparseable dates.
	Now func() time.Time
}

// NewSanitizer returns a Sanitizer using the wall clock.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{Now: time.Now}
}

// SanitizeForWrite is Sanitizer.SanitizeForWrite with the wall clock.
func SanitizeForWrite(method string, body any) map[string]any {
	return NewSanitizer().SanitizeForWrite(method, body)
}

// SanitizeForWrite returns a copy of body with recognized date fields rewritten to
// ISOLayout and, for PUT, server-owned identity and audit fields removed. It never
// fails: a body that is not a JSON object yields nil, and an unparseable date
// becomes the current time. The input is not modified.
func (s *Sanitizer) SanitizeForWrite(method string, body any) map[string]any {
	src := toObject(body)
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		if dateFields[k] {
			out[k] = s.normalizeDate(v)
			continue
		}
		out[k] = v
	}
	if strings.EqualFold(method, http.MethodPut) {
		for _, f := range serverOwnedFields {
			delete(out, f)
		}
	}
	return out
}

// toObject turns a map or a JSON-tagged struct into a fresh map.
func toObject(body any) map[string]any {
	switch b := body.(type) {
	case nil:
		return nil
	case map[string]any:
		return b
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil
	}
	return m
}

func (s *Sanitizer) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Sanitizer) normalizeDate(v any) any {
	if v == nil {
		return nil
	}
	if str, ok := v.(string); ok && strings.TrimSpace(str) == "" {
		return v
	}
	t, ok := parseDate(v)
	if !ok {
		t = s.now()
	}
	return FormatISO(t)
}

// FormatISO renders t in ISOLayout.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

func parseDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, !d.IsZero()
	case *time.Time:
		if d == nil || d.IsZero() {
			return time.Time{}, false
		}
		return *d, true
	case string:
		return parseDateString(strings.TrimSpace(d))
	case json.Number:
		f, err := d.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromEpoch(f)
	case float64:
		return fromEpoch(d)
	case float32:
		return fromEpoch(float64(d))
	case int:
		return fromEpoch(float64(d))
	case int64:
		return fromEpochInt(d)
	case int32:
		return fromEpochInt(int64(d))
	case uint32:
		return fromEpochInt(int64(d))
	case uint64:
		if d > math.MaxInt64 {
			return time.Time{}, false
		}
		return fromEpochInt(int64(d))
	}
	return time.Time{}, false
}

func parseDateString(s string) (time.Time, bool) {
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// numeric strings are epochs
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return fromEpochInt(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromEpoch(f)
	}
	return time.Time{}, false
}

func fromEpochInt(n int64) (time.Time, bool) {
	if n < EpochMillisThreshold {
		return time.Unix(n, 0), true
	}
	return time.UnixMilli(n), true
}

func fromEpoch(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	if f < EpochMillisThreshold {
		sec, frac := math.Modf(f)
		return time.Unix(int64(sec), int64(math.Round(frac*1e3))*int64(time.Millisecond)), true
	}
	if f > math.MaxInt64/2 {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(math.Round(f))), true
}
