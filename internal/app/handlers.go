package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/muhammadaliwebase/BMICalculator.New/internal/session"
)

func (a *App) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (a *App) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":            "bmistationd",
		"state":           a.correlator.State(),
		"uptime_seconds":  int64(time.Since(a.startedAt).Seconds()),
		"callback_addr":   a.listenerAddr.Load().(string),
		"callback_path":   a.cfg.Listener.Path,
		"scale_device":    a.cfg.Scale.Device,
		"scale_ok":        a.scaleOK.Load(),
		"api_base_url":    a.cfg.API.BaseURL,
		"journal_enabled": a.cfg.Journal.Enabled,
	})
}

func (a *App) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version":    Version,
		"go_version": GoVersion,
		"built_at":   BuiltAt,
	})
}

func (a *App) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, a.correlator.Snapshot())
}

func (a *App) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	err := a.correlator.Save(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	case errors.Is(err, session.ErrNoPerson),
		errors.Is(err, session.ErrNoMeasurement),
		errors.Is(err, session.ErrSavePending):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		a.metrics.SaveFailures.Inc()
		a.emitLog("error", "session", "save failed: "+err.Error())
		jsonError(w, err.Error(), http.StatusBadGateway)
	}
}

func (a *App) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	a.correlator.Clear()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleHistory serves stored measurements. With a person parameter the
// remote API is asked first, falling back to the local journal when the
// API is unreachable. Without one it lists the journal's newest entries.
func (a *App) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	personID := r.URL.Query().Get("person")
	if personID == "" {
		if a.journal == nil {
			jsonError(w, "person parameter required when journal is disabled", http.StatusBadRequest)
			return
		}
		entries, err := a.journal.Recent(limit)
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"source": "journal", "measurements": entries})
		return
	}

	history, err := a.api.GetHistory(r.Context(), personID, limit)
	if err == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"source": "api", "person": personID, "measurements": history,
		})
		return
	}

	a.log.Warnw("remote history failed", "person", personID, "error", err)
	if a.journal == nil {
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	entries, jerr := a.journal.ForPerson(personID, limit)
	if jerr != nil {
		jsonError(w, jerr.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"source": "journal", "person": personID, "measurements": entries,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]any{"ok": false, "error": msg})
}
