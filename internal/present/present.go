// Package present renders one result envelope under one presentation
// state. Rendering is a pure function of (envelope, state); the package
// never touches the network, never mutates the envelope, and degrades to
// omission instead of failing when fields are absent or malformed.
package present

import (
	"encoding/json"
	"sort"
	"strings"

	"querydeck/internal/gateway"
)

// ViewMode names a rendering strategy for an envelope.
type ViewMode string

const (
	ModeSummary  ViewMode = "summary"
	ModeTable    ViewMode = "table"
	ModeTimeline ViewMode = "timeline"
	ModeRaw      ViewMode = "raw"
)

// Display bounds. Truncation is silent; these are display limits, not
// backend paging.
const (
	maxTableRows     = 10
	maxTableColumns  = 6
	maxBuckets       = 5
	maxTimelineItems = 2
	maxCellRunes     = 50
	maxItemRunes     = 100
)

// privateFieldMarker prefixes bookkeeping fields the backend attaches to
// rows (_source, _relevance_score); those never become columns.
const privateFieldMarker = "_"

// State is the per-envelope UI state: the selected mode plus an
// independent raw toggle. Ephemeral; recreated with each rendering site.
type State struct {
	Mode    ViewMode
	ShowRaw bool
}

// NewState returns the default state: summary view, raw off.
func NewState() *State {
	return &State{Mode: ModeSummary}
}

// SetMode switches the view mode iff the mode is currently eligible for
// the envelope. Ineligible modes are a no-op, never an error.
func (s *State) SetMode(env *gateway.ResultEnvelope, mode ViewMode) bool {
	if !Eligible(env, mode) {
		return false
	}
	s.Mode = mode
	return true
}

// ToggleRaw flips the raw view unconditionally. The selected mode is kept
// so turning raw off restores the previous rendering.
func (s *State) ToggleRaw() { s.ShowRaw = !s.ShowRaw }

// Eligible reports whether a mode can be offered for the envelope.
func Eligible(env *gateway.ResultEnvelope, mode ViewMode) bool {
	switch mode {
	case ModeSummary:
		return !env.Empty()
	case ModeTable:
		return env != nil && len(env.Results) > 0
	case ModeTimeline:
		return env != nil && len(env.Timeline) > 0
	case ModeRaw:
		return true
	default:
		return false
	}
}

// EligibleModes lists the offerable modes in display order.
func EligibleModes(env *gateway.ResultEnvelope) []ViewMode {
	modes := make([]ViewMode, 0, 4)
	for _, mode := range []ViewMode{ModeSummary, ModeTable, ModeTimeline, ModeRaw} {
		if Eligible(env, mode) {
			modes = append(modes, mode)
		}
	}
	return modes
}

// View is the renderable outcome. Exactly one of the section pointers is
// populated, matching Mode; the zero View means "nothing to show".
type View struct {
	Mode     ViewMode
	Summary  *SummaryData
	Table    *TableData
	Timeline *TimelineData
	Raw      string
}

// SummaryData is the aggregate-summary rendering.
type SummaryData struct {
	Total        string // formatted count, "" when absent
	Sources      string // source names joined ", ", "" when absent
	Text         string
	Aggregations []AggregationBlock
}

// AggregationBlock is one source's metric breakdown.
type AggregationBlock struct {
	Source  string
	Metrics []MetricLine
}

// MetricLine is one metric: either a formatted scalar or up to five
// (key, count) bucket lines.
type MetricLine struct {
	Name    string
	Scalar  string
	Buckets []BucketLine
}

// BucketLine is one rendered bucket.
type BucketLine struct {
	Key   string
	Count string
}

// TableData is the tabular rendering: at most ten rows and six columns.
type TableData struct {
	Columns []Column
	Rows    [][]string
}

// Column carries the derived header label and the semantic class used for
// downstream styling ("currency", "date", "id" or "").
type Column struct {
	Key   string
	Label string
	Class string
}

// TimelineData is the dated-bucket rendering.
type TimelineData struct {
	Buckets []TimelineRow
}

// TimelineRow is one timeline bucket with up to two serialized items.
type TimelineRow struct {
	Date  string
	Count int
	Items []string
}

// Render produces the view for the envelope under the given state. An
// empty envelope renders nothing; ShowRaw supersedes the selected mode
// entirely.
func Render(env *gateway.ResultEnvelope, state *State) View {
	if state == nil {
		state = NewState()
	}
	if state.ShowRaw {
		return View{Mode: ModeRaw, Raw: rawDump(env)}
	}
	if env.Empty() {
		return View{}
	}
	mode := state.Mode
	if !Eligible(env, mode) {
		mode = ModeSummary
	}
	switch mode {
	case ModeTable:
		return View{Mode: ModeTable, Table: buildTable(env.Results)}
	case ModeTimeline:
		return View{Mode: ModeTimeline, Timeline: buildTimeline(env.Timeline)}
	case ModeRaw:
		return View{Mode: ModeRaw, Raw: rawDump(env)}
	default:
		return View{Mode: ModeSummary, Summary: buildSummary(env)}
	}
}

func buildSummary(env *gateway.ResultEnvelope) *SummaryData {
	data := &SummaryData{
		Sources: strings.Join(env.Sources, ", "),
		Text:    env.SummaryText,
	}
	if env.TotalResults != nil {
		data.Total = formatCount(*env.TotalResults)
	}

	sourceNames := make([]string, 0, len(env.Aggregations))
	for name := range env.Aggregations {
		sourceNames = append(sourceNames, name)
	}
	sort.Strings(sourceNames)
	for _, source := range sourceNames {
		metrics := env.Aggregations[source]
		block := AggregationBlock{Source: source}
		metricNames := make([]string, 0, len(metrics))
		for name := range metrics {
			metricNames = append(metricNames, name)
		}
		sort.Strings(metricNames)
		for _, name := range metricNames {
			block.Metrics = append(block.Metrics, buildMetricLine(name, metrics[name]))
		}
		if len(block.Metrics) > 0 {
			data.Aggregations = append(data.Aggregations, block)
		}
	}
	return data
}

func buildMetricLine(name string, value gateway.MetricValue) MetricLine {
	line := MetricLine{Name: name}
	if value.Buckets != nil {
		buckets := value.Buckets
		if len(buckets) > maxBuckets {
			buckets = buckets[:maxBuckets]
		}
		for _, bucket := range buckets {
			line.Buckets = append(line.Buckets, BucketLine{
				Key:   formatScalar(bucket.Key),
				Count: formatCount(bucket.Count),
			})
		}
		return line
	}
	line.Scalar = formatLocaleScalar(value.Scalar)
	return line
}

func buildTable(results []gateway.Row) *TableData {
	rows := results
	if len(rows) > maxTableRows {
		rows = rows[:maxTableRows]
	}

	// Column set is the first-seen order of field names across the shown
	// rows, private fields excluded, capped at six. Not sorted by name.
	columns := make([]Column, 0, maxTableColumns)
	seen := make(map[string]bool)
	for _, row := range rows {
		if len(columns) >= maxTableColumns {
			break
		}
		for _, key := range row.FieldOrder() {
			if len(columns) >= maxTableColumns {
				break
			}
			if seen[key] || strings.HasPrefix(key, privateFieldMarker) {
				continue
			}
			seen[key] = true
			columns = append(columns, Column{
				Key:   key,
				Label: headerLabel(key),
				Class: columnClass(key),
			})
		}
	}

	table := &TableData{Columns: columns}
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			value, ok := row.Fields[col.Key]
			if !ok {
				cells[i] = absentCell
				continue
			}
			cells[i] = formatCell(col.Key, value)
		}
		table.Rows = append(table.Rows, cells)
	}
	return table
}

func buildTimeline(buckets []gateway.TimelineBucket) *TimelineData {
	data := &TimelineData{}
	for _, bucket := range buckets {
		row := TimelineRow{Date: bucket.Date, Count: bucket.Count}
		items := bucket.Items
		if len(items) > maxTimelineItems {
			items = items[:maxTimelineItems]
		}
		for _, item := range items {
			row.Items = append(row.Items, truncateRunes(compactJSON(item), maxItemRunes))
		}
		data.Buckets = append(data.Buckets, row)
	}
	return data
}

// rawDump pretty-prints the full envelope at fixed two-space indentation.
func rawDump(env *gateway.ResultEnvelope) string {
	if env == nil {
		return "{}"
	}
	buf, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(buf)
}

func compactJSON(item map[string]any) string {
	buf, err := json.Marshal(item)
	if err != nil {
		return ""
	}
	return string(buf)
}
