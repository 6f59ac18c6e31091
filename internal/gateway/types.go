package gateway

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

// ChatResponse is the backend's answer to one chat turn. Data and QueryInfo
// are optional; Response is the natural-language answer shown to the user.
type ChatResponse struct {
	Response       string          `json:"response"`
	Data           *ResultEnvelope `json:"data,omitempty"`
	QueryInfo      *QueryInfo      `json:"query_info,omitempty"`
	ConversationID string          `json:"conversation_id"`
}

// ResultEnvelope is the schema-flexible result payload. Every field is
// optional; presence, not a type tag, decides how the payload is read.
type ResultEnvelope struct {
	TotalResults *int64                            `json:"total_results,omitempty"`
	Sources      []string                          `json:"sources,omitempty"`
	SummaryText  string                            `json:"summary,omitempty"`
	Aggregations map[string]map[string]MetricValue `json:"aggregations,omitempty"`
	Results      []Row                             `json:"results,omitempty"`
	Timeline     []TimelineBucket                  `json:"timeline,omitempty"`
	Metadata     map[string]any                    `json:"metadata,omitempty"`
}

// Empty reports whether the envelope carries nothing worth showing. An
// all-absent envelope is suppressed by callers rather than rendered.
func (e *ResultEnvelope) Empty() bool {
	if e == nil {
		return true
	}
	return e.TotalResults == nil &&
		len(e.Sources) == 0 &&
		strings.TrimSpace(e.SummaryText) == "" &&
		len(e.Aggregations) == 0 &&
		len(e.Results) == 0 &&
		len(e.Timeline) == 0 &&
		len(e.Metadata) == 0
}

// Row is one result record: field name to scalar value. Go maps drop the
// document's key order, but column selection downstream depends on it, so
// the order observed while decoding is kept alongside the values.
type Row struct {
	Fields map[string]any
	Order  []string
}

func (r *Row) UnmarshalJSON(data []byte) error {
	r.Fields = map[string]any{}
	r.Order = nil
	if err := json.Unmarshal(data, &r.Fields); err != nil {
		// Tolerate non-object rows; they render as empty records.
		r.Fields = map[string]any{}
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil
		}
		if key, ok := keyTok.(string); ok {
			r.Order = append(r.Order, key)
		}
		if err := skipValue(dec); err != nil {
			return nil
		}
	}
	return nil
}

// MarshalJSON writes fields back in document order so raw dumps stay
// faithful to what the backend sent.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.FieldOrder() {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		value, err := json.Marshal(r.Fields[key])
		if err != nil {
			value = []byte("null")
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FieldOrder returns the row's field names in document order. Rows built
// in code without an explicit order fall back to sorted names; fields
// missing from the recorded order are appended sorted.
func (r Row) FieldOrder() []string {
	order := make([]string, 0, len(r.Fields))
	seen := make(map[string]bool, len(r.Fields))
	for _, key := range r.Order {
		if _, ok := r.Fields[key]; ok && !seen[key] {
			seen[key] = true
			order = append(order, key)
		}
	}
	rest := make([]string, 0, len(r.Fields))
	for key := range r.Fields {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || (delim != '{' && delim != '[') {
		return nil
	}
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

// TimelineBucket is one dated bucket of a time-analysis result.
type TimelineBucket struct {
	Date  string           `json:"date"`
	Count int              `json:"count"`
	Items []map[string]any `json:"items,omitempty"`
}

// Bucket is one (key, count) pair of a bucketed aggregation metric.
type Bucket struct {
	Key   any   `json:"key"`
	Count int64 `json:"count"`
}

// MetricValue is either a scalar (number or string) or an ordered bucket
// list. The backend does not tag which; we sniff the JSON shape and never
// fail the decode.
type MetricValue struct {
	Scalar  any
	Buckets []Bucket
}

func (v *MetricValue) UnmarshalJSON(data []byte) error {
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err == nil && len(rows) > 0 {
		buckets := make([]Bucket, 0, len(rows))
		shaped := true
		for _, row := range rows {
			key, ok := row["key"]
			if !ok {
				shaped = false
				break
			}
			buckets = append(buckets, Bucket{Key: key, Count: asInt64(row["count"])})
		}
		if shaped {
			v.Scalar = nil
			v.Buckets = buckets
			return nil
		}
	}
	var scalar any
	if err := json.Unmarshal(data, &scalar); err != nil {
		// Unreachable inside a valid document; keep the raw text instead
		// of surfacing a decode error.
		scalar = string(data)
	}
	v.Scalar = scalar
	v.Buckets = nil
	return nil
}

func (v MetricValue) MarshalJSON() ([]byte, error) {
	if v.Buckets != nil {
		return json.Marshal(v.Buckets)
	}
	return json.Marshal(v.Scalar)
}

func asInt64(value any) int64 {
	switch n := value.(type) {
	case float64:
		return int64(n)
	case int:
		return int64(n)
	case int64:
		return n
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

// QueryInfo is the backend's diagnostic view of how it interpreted the
// query. Display-only; it never drives rendering decisions.
type QueryInfo struct {
	Intent   string         `json:"intent,omitempty"`
	Entities []Entity       `json:"entities,omitempty"`
	Routing  map[string]any `json:"routing,omitempty"`
}

// Entity is one recognized span of the user's question.
type Entity struct {
	Text string `json:"text"`
}

// RoutedSources lists the sources the backend enabled for the query, in
// name order. Routing keys follow the use_<source> convention and the set
// of sources is open-ended.
func (q *QueryInfo) RoutedSources() []string {
	if q == nil {
		return nil
	}
	names := make([]string, 0, len(q.Routing))
	for key, value := range q.Routing {
		enabled, ok := value.(bool)
		if !ok || !enabled {
			continue
		}
		if name := strings.TrimPrefix(key, "use_"); name != key && name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
