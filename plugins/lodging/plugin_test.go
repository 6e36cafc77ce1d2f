package lodging

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lookupdesk/internal/core"
	"lookupdesk/pkg/query"
)

func newService(t *testing.T) *core.Service {
	t.Helper()
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	_, err := svc.InstallPlugin(New())
	require.NoError(t, err)
	return svc
}

func run(t *testing.T, svc *core.Service, key string, params map[string]any) core.DatasetRunResult {
	t.Helper()
	res, errs, err := svc.RunDataset(context.Background(), "lodging/"+key+"@"+version, params, core.DatasetScope{}, core.FormatJSON)
	require.NoError(t, err)
	require.Empty(t, errs)
	return res
}

func column(res core.DatasetRunResult, name string) []any {
	out := make([]any, 0, len(res.Rows))
	for _, row := range res.Rows {
		out = append(out, row[name])
	}
	return out
}

func TestPropertiesByTypeAndPrice(t *testing.T) {
	svc := newService(t)
	res := run(t, svc, "properties", map[string]any{"type": "apartment", "min_price": 0, "max_price": 10_000_000})
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "City Loft Apartment", res.Rows[0]["name"])
	assert.Equal(t, 8_000_000.0, res.Rows[0]["price"])
	summary := res.Metadata["summary"].(query.Summary)
	assert.Equal(t, 8_000_000.0, summary.Total)
}

func TestPropertiesNoFiltersReturnsAll(t *testing.T) {
	svc := newService(t)
	res := run(t, svc, "properties", map[string]any{})
	assert.Len(t, res.Rows, len(properties))
	assert.Equal(t, "matched", res.Metadata["outcome"])
}

func TestPropertiesBadBoundWidens(t *testing.T) {
	svc := newService(t)
	res := run(t, svc, "properties", map[string]any{"location": "Colombo", "max_price": "cheap"})
	want := []any{"City Loft Apartment", "Harbour View Apartment", "Garden House"}
	if diff := cmp.Diff(want, column(res, "name")); diff != "" {
		t.Fatalf("unexpected properties (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"max_price"}, res.Metadata["widened"])
}

func TestPropertiesTooNarrow(t *testing.T) {
	svc := newService(t)
	res := run(t, svc, "properties", map[string]any{"type": "Villa", "max_price": 1_000_000})
	assert.Empty(t, res.Rows)
	assert.Equal(t, "too_narrow", res.Metadata["outcome"])
	assert.Equal(t, "No properties match your criteria.", res.Metadata["message"])
}

func TestRoomsSkipUnavailable(t *testing.T) {
	svc := newService(t)
	res := run(t, svc, "rooms", map[string]any{"room_type": "suite"})
	assert.Equal(t, []any{"401"}, column(res, "room"))
	assert.NotContains(t, res.Rows[0], "available")
}

func TestRoomsCapacityRateAndAmenities(t *testing.T) {
	svc := newService(t)

	res := run(t, svc, "rooms", map[string]any{"guests": 3, "max_rate": 30000})
	assert.Equal(t, []any{"201", "301"}, column(res, "room"))

	res = run(t, svc, "rooms", map[string]any{"amenities": "sea view, kitchenette"})
	assert.Equal(t, []any{"201", "301", "401"}, column(res, "room"))

	res = run(t, svc, "rooms", map[string]any{"guests": "lots", "max_rate": 12000})
	assert.Equal(t, []any{"101"}, column(res, "room"))
	assert.Equal(t, []string{"guests"}, res.Metadata["widened"])
}

func TestRoomsNoneAvailable(t *testing.T) {
	svc := newService(t)
	res := run(t, svc, "rooms", map[string]any{"guests": 6})
	assert.Empty(t, res.Rows)
	assert.Equal(t, "No rooms available for the selected criteria.", res.Metadata["message"])
}
