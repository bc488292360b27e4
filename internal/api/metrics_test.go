package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

func scrape(t *testing.T, r http.Handler) map[string]*dto.MetricFamily {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type = %q", ct)
	}
	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(strings.NewReader(w.Body.String()))
	if err != nil {
		t.Fatalf("parse exposition: %v\n%s", err, w.Body.String())
	}
	return families
}

func runCount(mf *dto.MetricFamily, status string) float64 {
	for _, m := range mf.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == "status" && l.GetValue() == status {
				return m.GetCounter().GetValue()
			}
		}
	}
	return -1
}

func TestMetricsWithoutRuns(t *testing.T) {
	r, _ := newTestRouter(t)

	families := scrape(t, r)
	runs, ok := families["sprintanalyzer_runs_total"]
	if !ok {
		t.Fatalf("runs_total missing: %v", families)
	}
	if got := runCount(runs, "completed"); got != 0 {
		t.Fatalf("completed = %v", got)
	}
	if _, ok := families["sprintanalyzer_last_run_staff"]; ok {
		t.Fatalf("last-run gauges exported without a completed run")
	}
}

func TestMetricsAfterRuns(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, dup := range []bool{false, true} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, uploadRequest(t, "sprint.xlsx", workbookBytes(t, dup)))
		if w.Code != http.StatusOK {
			t.Fatalf("upload status = %d", w.Code)
		}
	}

	families := scrape(t, r)
	runs := families["sprintanalyzer_runs_total"]
	if runCount(runs, "completed") != 1 || runCount(runs, "failed") != 1 || runCount(runs, "running") != 0 {
		t.Fatalf("runs_total = %v", runs)
	}
	if got := families["sprintanalyzer_last_run_staff"].GetMetric()[0].GetGauge().GetValue(); got != 2 {
		t.Fatalf("last_run_staff = %v", got)
	}
	if got := families["sprintanalyzer_last_run_completion_ratio"].GetMetric()[0].GetGauge().GetValue(); got != 0.5 {
		t.Fatalf("completion ratio = %v", got)
	}
}
