package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lookupdesk/internal/adapters/testutil"
	"lookupdesk/internal/core"
)

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func newHandler(t *testing.T) (*Handler, *core.Service) {
	t.Helper()
	svc, err := testutil.NewService()
	require.NoError(t, err)
	return NewHandler(svc), svc
}

func TestAppendAndListPreserveOrder(t *testing.T) {
	h, svc := newHandler(t)
	for _, name := range []string{"Pedro Estate", "Halpewatte", "Pedro Estate"} {
		w := serve(h, http.MethodPost, Prefix+"/plantations", `{"name":"`+name+`","region":"Uva","production_kg":100,"id":"client-id"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := serve(h, http.MethodGet, Prefix+"/plantations", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Entries []core.Plantation `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 3)
	assert.Equal(t, "Pedro Estate", resp.Entries[0].Name)
	assert.Equal(t, "Halpewatte", resp.Entries[1].Name)
	assert.Equal(t, "Pedro Estate", resp.Entries[2].Name)
	assert.NotEqual(t, "client-id", resp.Entries[0].ID)
	assert.NotEqual(t, resp.Entries[0].ID, resp.Entries[2].ID)
	assert.Len(t, svc.ListPlantations(), 3)
}

func TestAppendBlankFieldsIsBlocked(t *testing.T) {
	h, svc := newHandler(t)
	w := serve(h, http.MethodPost, Prefix+"/plantations", `{"name":"","region":"Uva","production_kg":10}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error      string           `json:"error"`
		Violations []core.Violation `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, MissingFieldsMessage, resp.Error)
	require.NotEmpty(t, resp.Violations)
	assert.Equal(t, core.SeverityBlock, resp.Violations[0].Severity)
	assert.Empty(t, svc.ListPlantations())
}

func TestAppendNegativeQuantityIsBlocked(t *testing.T) {
	h, _ := newHandler(t)
	w := serve(h, http.MethodPost, Prefix+"/inventory", `{"item":"Fertiliser","quantity":-2}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "transaction blocked by rules")
}

func TestAppendReturnsWarnings(t *testing.T) {
	h, _ := newHandler(t)
	w := serve(h, http.MethodPost, Prefix+"/incidents", `{"title":"Storm damage","location":"Factory","severity":"apocalyptic"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Entry      core.Incident    `json:"entry"`
		Violations []core.Violation `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Storm damage", resp.Entry.Title)
	assert.False(t, resp.Entry.CreatedAt.IsZero())
	require.Len(t, resp.Violations, 1)
	assert.Equal(t, core.SeverityWarn, resp.Violations[0].Severity)
}

func TestEmptyLogListsEmptyArray(t *testing.T) {
	h, _ := newHandler(t)
	w := serve(h, http.MethodGet, Prefix+"/inventory/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"entries":[]}`, w.Body.String())
}

func TestRoutingErrors(t *testing.T) {
	h, _ := newHandler(t)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, Prefix+"/harvests", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(h, http.MethodDelete, Prefix+"/incidents", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodPost, Prefix+"/incidents", "{").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(&Handler{}, http.MethodGet, Prefix+"/incidents", "").Code)
}

type failingLedger struct{ Ledger }

func (failingLedger) AppendIncident(context.Context, core.Incident) (core.Incident, core.Result, error) {
	return core.Incident{}, core.Result{}, errors.New("disk full")
}

func TestAppendStoreFailure(t *testing.T) {
	_, svc := newHandler(t)
	h := NewHandler(failingLedger{Ledger: svc})
	w := serve(h, http.MethodPost, Prefix+"/incidents", `{"title":"x","location":"y","severity":"low"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk full")
}
