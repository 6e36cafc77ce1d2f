package travel

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lookupdesk/internal/core"
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
	res, errs, err := svc.RunDataset(context.Background(), "travel/"+key+"@"+version, params, core.DatasetScope{}, core.FormatJSON)
	require.NoError(t, err)
	require.Empty(t, errs)
	return res
}

func trains(res core.DatasetRunResult) []string {
	out := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		out = append(out, row["train"].(string))
	}
	return out
}

func TestSchedulesFilterByClassInOrder(t *testing.T) {
	svc := newService(t)
	res := run(t, svc, "train_schedules", map[string]any{"from": "Colombo", "to": "KANDY", "classes": []any{"third class"}})
	if diff := cmp.Diff([]string{"Udarata Menike", "Podi Menike"}, trains(res)); diff != "" {
		t.Fatalf("unexpected trains (-want +got):\n%s", diff)
	}
	assert.Equal(t, "matched", res.Metadata["outcome"])
}

func TestSchedulesWithoutClassesReturnsRoute(t *testing.T) {
	svc := newService(t)
	res := run(t, svc, "train_schedules", map[string]any{"from": "colombo", "to": "kandy"})
	assert.Len(t, res.Rows, 3)
}

func TestSchedulesOutcomes(t *testing.T) {
	svc := newService(t)

	res := run(t, svc, "train_schedules", map[string]any{"from": "Colombo", "to": "Jaffna"})
	assert.Empty(t, res.Rows)
	assert.Equal(t, "no_dataset", res.Metadata["outcome"])
	assert.Equal(t, "No trains found for this route.", res.Metadata["message"])

	res = run(t, svc, "train_schedules", map[string]any{"from": "Colombo", "to": "Galle", "classes": "First Class"})
	assert.Empty(t, res.Rows)
	assert.Equal(t, "too_narrow", res.Metadata["outcome"])
}

func TestSchedulesRequireEndpoints(t *testing.T) {
	svc := newService(t)
	_, errs, err := svc.RunDataset(context.Background(), "travel/train_schedules@"+version,
		map[string]any{"from": "Colombo"}, core.DatasetScope{}, core.FormatJSON)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "to", errs[0].Name)
}

func TestFareTotals(t *testing.T) {
	svc := newService(t)
	res := run(t, svc, "fares", map[string]any{"from": "Colombo", "to": "Kandy", "class": "second class", "passengers": 3})
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 1500.0, res.Rows[0]["total"])
	assert.Equal(t, 3, res.Rows[0]["passengers"])
	assert.Equal(t, "Total fare for 3 passenger(s) in Second Class: 1500.00 LKR", res.Metadata["message"])
}

func TestFarePassengersWidenToDefault(t *testing.T) {
	svc := newService(t)
	res := run(t, svc, "fares", map[string]any{"from": "Colombo", "to": "Kandy", "passengers": "several"})
	require.Len(t, res.Rows, 3)
	for _, row := range res.Rows {
		assert.Equal(t, 1, row["passengers"])
		assert.Equal(t, row["fare"], row["total"])
	}
	assert.Equal(t, []string{"passengers"}, res.Metadata["widened"])
	assert.NotContains(t, res.Metadata, "message")
}

func TestFareRejectsEmptyParty(t *testing.T) {
	svc := newService(t)
	res := run(t, svc, "fares", map[string]any{"from": "Colombo", "to": "Kandy", "passengers": 0})
	assert.Empty(t, res.Rows)
	assert.Equal(t, "invalid_input", res.Metadata["outcome"])
}

func TestRouteKey(t *testing.T) {
	assert.Equal(t, "colombo-kandy", routeKey(" Colombo ", "KANDY"))
}
