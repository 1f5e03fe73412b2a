package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/muhammadaliwebase/BMICalculator.New/internal/config"
)

func newTestApp(apiURL string) *App {
	cfg := config.Default()
	cfg.Journal.Enabled = false
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	return New(Options{Logger: zap.NewNop().Sugar(), Cfg: cfg})
}

func TestHandleStatus(t *testing.T) {
	a := newTestApp("")

	rec := httptest.NewRecorder()
	a.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["name"] != "bmistationd" || resp["state"] != "IDLE" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHandleSessionRejectsPost(t *testing.T) {
	a := newTestApp("")

	rec := httptest.NewRecorder()
	a.handleSession(rec, httptest.NewRequest(http.MethodPost, "/api/session", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestHandleSaveEmptySession(t *testing.T) {
	a := newTestApp("")

	rec := httptest.NewRecorder()
	a.handleSave(rec, httptest.NewRequest(http.MethodPost, "/api/session/save", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestHandleClear(t *testing.T) {
	a := newTestApp("")

	rec := httptest.NewRecorder()
	a.handleClear(rec, httptest.NewRequest(http.MethodPost, "/api/session/clear", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleHistoryFromAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/BmiMeasurement/GetHistoryByPersonId/E1" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`[{"id":1,"bmi":22.5},{"id":2,"bmi":23.1}]`))
	}))
	defer srv.Close()
	a := newTestApp(srv.URL)

	rec := httptest.NewRecorder()
	a.handleHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history?person=E1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Source       string `json:"source"`
		Measurements []struct {
			BMI float64 `json:"bmi"`
		} `json:"measurements"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Source != "api" || len(resp.Measurements) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestHandleHistoryRequiresPersonWithoutJournal(t *testing.T) {
	a := newTestApp("")

	rec := httptest.NewRecorder()
	a.handleHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
