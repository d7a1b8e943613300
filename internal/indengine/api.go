package indengine

import (
	"encoding/json"
	"errors"
	"net/http"

	"batch-indicators/internal/indicator"
)

type indicatorView struct {
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Period int     `json:"period"`
	Slow   int     `json:"slow,omitempty"`
	Signal int     `json:"signal,omitempty"`
	Mult   float64 `json:"mult,omitempty"`
}

func viewOf(cfgs []indicator.IndicatorConfig) []indicatorView {
	out := make([]indicatorView, len(cfgs))
	for i, c := range cfgs {
		out[i] = indicatorView{
			Name:   c.Name(),
			Type:   c.Type,
			Period: c.Period,
			Slow:   c.Slow,
			Signal: c.Signal,
			Mult:   c.Mult,
		}
	}
	return out
}

// IndicatorsHandler serves GET /indicators with the active indicator set.
func (s *Service) IndicatorsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "GET only", http.StatusMethodNotAllowed)
			return
		}
		s.writeJSON(w, http.StatusOK, viewOf(s.Indicators()))
	})
}

// ReloadHandler serves POST /reload with a body {"indicators":"RSI:14,EMA:9"}.
func (s *Service) ReloadHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Indicators string `json:"indicators"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		cfgs, err := s.Reload(req.Indicators)
		if err != nil {
			code := http.StatusInternalServerError
			if errors.Is(err, indicator.ErrInvalidArgument) {
				code = http.StatusBadRequest
			}
			http.Error(w, "validation: "+err.Error(), code)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":     "ok",
			"indicators": viewOf(cfgs),
		})
	})
}

func (s *Service) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).WithField("status", code).Debug("write response")
	}
}
