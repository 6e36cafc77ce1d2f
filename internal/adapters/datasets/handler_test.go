package datasets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func serve(h http.Handler, method, target, body string, header ...string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		r.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func TestListTemplates(t *testing.T) {
	h := NewHandler(newTestService(t))
	w := serve(h, http.MethodGet, Prefix+"/templates", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Templates []struct {
			Plugin string `json:"plugin"`
			Slug   string `json:"slug"`
		} `json:"templates"`
	}
	decode(t, w, &resp)
	require.Len(t, resp.Templates, 11)
	assert.Equal(t, "estates", resp.Templates[0].Plugin)
	assert.Equal(t, "travel", resp.Templates[len(resp.Templates)-1].Plugin)
}

func TestDescribeTemplate(t *testing.T) {
	h := NewHandler(newTestService(t))

	w := serve(h, http.MethodGet, Prefix+"/templates/tourism/attractions/1.0.0", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Template struct {
			Slug       string `json:"slug"`
			Parameters []struct {
				Name string `json:"name"`
			} `json:"parameters"`
		} `json:"template"`
	}
	decode(t, w, &resp)
	assert.Equal(t, attractionsSlug, resp.Template.Slug)
	require.Len(t, resp.Template.Parameters, 1)

	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, Prefix+"/templates/tourism/attractions/9.9.9", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, Prefix+"/templates/tourism", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, Prefix+"/templates/tourism/attractions/1.0.0/explain", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(h, http.MethodDelete, Prefix+"/templates/tourism/attractions/1.0.0", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/api/v1/other", "").Code)
}

func TestValidate(t *testing.T) {
	h := NewHandler(newTestService(t))
	target := Prefix + "/templates/travel/fares/1.0.0/validate"

	w := serve(h, http.MethodPost, target, `{"parameters":{"FROM":"Colombo","to":"Kandy"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp validationResponse
	decode(t, w, &resp)
	assert.True(t, resp.Valid)
	assert.Equal(t, "Colombo", resp.Parameters["from"])
	assert.EqualValues(t, 1, resp.Parameters["passengers"])

	w = serve(h, http.MethodPost, target, `{"parameters":{"from":"Colombo","seats":2}}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp = validationResponse{}
	decode(t, w, &resp)
	assert.False(t, resp.Valid)
	require.Len(t, resp.Errors, 2)
	assert.Equal(t, "seats", resp.Errors[0].Name)
	assert.Equal(t, "to", resp.Errors[1].Name)

	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodPost, target, `{not json`).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(h, http.MethodGet, target, "").Code)
}

func TestRunJSON(t *testing.T) {
	h := NewHandler(newTestService(t))
	body := `{"parameters":{"type":"Apartment","min_price":0,"max_price":10000000},"scope":{"requestor":"agent"}}`
	w := serve(h, http.MethodPost, Prefix+"/templates/lodging/properties/1.0.0/run", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Scope struct {
			Requestor string `json:"requestor"`
		} `json:"scope"`
		Result struct {
			Rows     []map[string]any `json:"rows"`
			Metadata map[string]any   `json:"metadata"`
			Format   string           `json:"format"`
		} `json:"result"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "agent", resp.Scope.Requestor)
	require.Len(t, resp.Result.Rows, 1)
	assert.Equal(t, "City Loft Apartment", resp.Result.Rows[0]["name"])
	assert.Equal(t, "matched", resp.Result.Metadata["outcome"])
	assert.Equal(t, "json", resp.Result.Format)
}

func TestRunReportsWidenedAndEmptyOutcome(t *testing.T) {
	h := NewHandler(newTestService(t))
	body := `{"parameters":{"type":"Villa","max_price":"cheap","min_price":40000000}}`
	w := serve(h, http.MethodPost, Prefix+"/templates/lodging/properties/1.0.0/run", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Result struct {
			Rows     []map[string]any `json:"rows"`
			Metadata map[string]any   `json:"metadata"`
		} `json:"result"`
	}
	decode(t, w, &resp)
	assert.NotNil(t, resp.Result.Rows)
	assert.Empty(t, resp.Result.Rows)
	assert.Equal(t, "too_narrow", resp.Result.Metadata["outcome"])
	assert.Equal(t, []any{"max_price"}, resp.Result.Metadata["widened"])
}

func TestRunParameterErrors(t *testing.T) {
	h := NewHandler(newTestService(t))
	w := serve(h, http.MethodPost, Prefix+"/templates/tourism/festival_check/1.0.0/run", `{"parameters":{"festival":"Vesak","date":"12/05/2025"}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp validationResponse
	decode(t, w, &resp)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "date", resp.Errors[0].Name)
}

func TestRunCSV(t *testing.T) {
	h := NewHandler(newTestService(t))
	body := `{"parameters":{"from":"colombo","to":"kandy","classes":["Third Class"]}}`

	for _, w := range []*httptest.ResponseRecorder{
		serve(h, http.MethodPost, Prefix+"/templates/travel/train_schedules/1.0.0/run?format=csv", body),
		serve(h, http.MethodPost, Prefix+"/templates/travel/train_schedules/1.0.0/run", body, "Accept", "text/csv"),
	} {
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="train_schedules-20250512T083000Z.csv"`)
		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "train,departure,arrival,classes", lines[0])
		assert.Equal(t, "Udarata Menike,05:55,08:40,Second Class; Third Class", lines[1])
	}
}

func TestRunHTMLShowsEscapedMessage(t *testing.T) {
	h := NewHandler(newTestService(t))
	w := serve(h, http.MethodPost, Prefix+"/templates/tourism/attractions/1.0.0/run", `{"parameters":{"name":"<b>Fort</b>"}}`, "Accept", "text/html")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	out := w.Body.String()
	assert.Contains(t, out, `<p class="message">Sorry, no details available for`)
	assert.Contains(t, out, "&lt;b&gt;fort&lt;/b&gt;")
	assert.NotContains(t, out, "<b>fort</b>")
}

func TestRunFormatNegotiationFailures(t *testing.T) {
	h := NewHandler(newTestService(t))
	target := Prefix + "/templates/tourism/attractions/1.0.0/run"
	assert.Equal(t, http.StatusNotAcceptable, serve(h, http.MethodPost, target+"?format=xml", `{"parameters":{"name":"x"}}`).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(h, http.MethodGet, target, "").Code)
}

func TestHandlerWithoutCatalog(t *testing.T) {
	w := serve(&Handler{}, http.MethodGet, Prefix+"/templates", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestExportEndpoints(t *testing.T) {
	defer goleak.VerifyNone(t)
	svc := newTestService(t)
	worker, _ := newTestWorker(t, svc)
	worker.Start()
	defer stopWorker(t, worker)
	h := &Handler{Catalog: svc, Exports: worker}

	w := serve(h, http.MethodPost, Prefix+"/exports",
		`{"template":{"plugin":"travel","key":"fares","version":"1.0.0"},"parameters":{"from":"Colombo","to":"Galle","passengers":2},"formats":["csv","HTML"],"scope":{"requestor":"ops"}}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var created struct {
		Export ExportRecord `json:"export"`
	}
	decode(t, w, &created)
	assert.Equal(t, "ops", created.Export.RequestedBy)
	id := created.Export.ID
	waitForExport(t, worker, id)

	w = serve(h, http.MethodGet, Prefix+"/exports/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	var fetched struct {
		Export ExportRecord `json:"export"`
	}
	decode(t, w, &fetched)
	assert.Equal(t, ExportStatusSucceeded, fetched.Export.Status)
	assert.Len(t, fetched.Export.Artifacts, 2)

	w = serve(h, http.MethodGet, Prefix+"/exports/"+id+"/artifacts/csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "route,class,fare,passengers,total\ncolombo-galle,First Class,1200,2,2400\n"), w.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, Prefix+"/exports/"+id+"/artifacts/json", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodGet, Prefix+"/exports/"+id+"/artifacts/xml", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, Prefix+"/exports/unknown", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, Prefix+"/exports/unknown/artifacts/csv", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(h, http.MethodGet, Prefix+"/exports", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(h, http.MethodDelete, Prefix+"/exports/"+id, "").Code)
}

func TestExportCreateErrors(t *testing.T) {
	svc := newTestService(t)
	worker, _ := newTestWorker(t, svc, WithQueueSize(1))
	h := &Handler{Catalog: svc, Exports: worker}

	cases := []struct{ body, want string }{
		{`{}`, "template slug or plugin/key/version required"},
		{`{"template":{"slug":"` + attractionsSlug + `"},"formats":["weird"]}`, "unsupported export format"},
		{`{"template":{"slug":"tourism/missing@1.0.0"}}`, "not found"},
	}
	for _, c := range cases {
		w := serve(h, http.MethodPost, Prefix+"/exports", c.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, c.body)
		assert.Contains(t, w.Body.String(), c.want)
	}

	body := `{"template":{"slug":"` + attractionsSlug + `"},"parameters":{"name":"x"}}`
	require.Equal(t, http.StatusAccepted, serve(h, http.MethodPost, Prefix+"/exports", body).Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(h, http.MethodPost, Prefix+"/exports", body).Code)
}

func TestExportsDisabledWithoutScheduler(t *testing.T) {
	h := NewHandler(newTestService(t))
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodPost, Prefix+"/exports", `{}`).Code)
}

type staticScheduler struct{ record ExportRecord }

func (s staticScheduler) EnqueueExport(context.Context, ExportInput) (ExportRecord, error) {
	return s.record, nil
}

func (s staticScheduler) GetExport(id string) (ExportRecord, bool) { return s.record, id == s.record.ID }

func TestArtifactRouteNeedsArtifactSource(t *testing.T) {
	h := &Handler{Catalog: newTestService(t), Exports: staticScheduler{record: ExportRecord{ID: "x"}}}
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, Prefix+"/exports/x", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, Prefix+"/exports/x/artifacts/csv", "").Code)
}
