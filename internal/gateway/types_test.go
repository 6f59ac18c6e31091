package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricValueSniffsBuckets(t *testing.T) {
	var value MetricValue
	require.NoError(t, json.Unmarshal([]byte(`[{"key":"a","count":3},{"key":"b","count":1}]`), &value))
	require.Len(t, value.Buckets, 2)
	assert.Equal(t, "a", value.Buckets[0].Key)
	assert.EqualValues(t, 3, value.Buckets[0].Count)
	assert.Nil(t, value.Scalar)
}

func TestMetricValueKeepsScalars(t *testing.T) {
	cases := map[string]any{
		`42`:        float64(42),
		`"pending"`: "pending",
		`1.5`:       1.5,
	}
	for raw, want := range cases {
		var value MetricValue
		require.NoError(t, json.Unmarshal([]byte(raw), &value))
		assert.Equal(t, want, value.Scalar, raw)
		assert.Nil(t, value.Buckets, raw)
	}
}

func TestMetricValueArrayWithoutKeysIsScalar(t *testing.T) {
	var value MetricValue
	require.NoError(t, json.Unmarshal([]byte(`[{"name":"x"}]`), &value))
	assert.Nil(t, value.Buckets)
	assert.NotNil(t, value.Scalar)
}

func TestMetricValueRoundTrip(t *testing.T) {
	raw := `[{"key":"a","count":3}]`
	var value MetricValue
	require.NoError(t, json.Unmarshal([]byte(raw), &value))
	out, err := json.Marshal(value)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestRowKeepsDocumentFieldOrder(t *testing.T) {
	var row Row
	require.NoError(t, json.Unmarshal([]byte(`{"zeta":1,"alpha":"x","mid":{"nested":[1,2]},"beta":null}`), &row))
	assert.Equal(t, []string{"zeta", "alpha", "mid", "beta"}, row.FieldOrder())
}

func TestRowMarshalPreservesOrder(t *testing.T) {
	var row Row
	require.NoError(t, json.Unmarshal([]byte(`{"b":2,"a":1}`), &row))
	out, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `{"b":2,"a":1}`, string(out))
}

func TestRowBuiltInCodeFallsBackToSortedOrder(t *testing.T) {
	row := Row{Fields: map[string]any{"b": 1, "a": 2}}
	assert.Equal(t, []string{"a", "b"}, row.FieldOrder())
}

func TestEnvelopeEmpty(t *testing.T) {
	var nilEnv *ResultEnvelope
	assert.True(t, nilEnv.Empty())
	assert.True(t, (&ResultEnvelope{}).Empty())

	zero := int64(0)
	assert.False(t, (&ResultEnvelope{TotalResults: &zero}).Empty())
	assert.False(t, (&ResultEnvelope{SummaryText: "something"}).Empty())
	assert.False(t, (&ResultEnvelope{Sources: []string{"postgresql"}}).Empty())

	// Whitespace-only summary is still nothing to show.
	assert.True(t, (&ResultEnvelope{SummaryText: "   "}).Empty())
}

func TestRoutedSourcesSkipsDisabledAndForeignKeys(t *testing.T) {
	info := &QueryInfo{Routing: map[string]any{
		"use_postgresql":      true,
		"use_elasticsearch":   false,
		"use_clickhouse":      true,
		"elasticsearch_query": map[string]any{"match": "x"},
	}}
	assert.Equal(t, []string{"clickhouse", "postgresql"}, info.RoutedSources())

	var none *QueryInfo
	assert.Nil(t, none.RoutedSources())
}
