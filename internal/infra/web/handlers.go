package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"ai-image-studio/internal/usecase"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type statsResponse struct {
	Users              int   `json:"users"`
	OutstandingCredits int64 `json:"outstanding_credits"`
	RevenueWeek        int64 `json:"revenue_week"`
	RevenueMonth       int64 `json:"revenue_month"`
	RevenueYear        int64 `json:"revenue_year"`
}

func statsHandler(statsUC usecase.StatsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		users, outstanding, err := statsUC.Totals(r.Context())
		if err != nil {
			http.Error(w, "failed to load totals", http.StatusInternalServerError)
			return
		}
		week, month, year, err := statsUC.Revenue(r.Context())
		if err != nil {
			http.Error(w, "failed to load revenue", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, statsResponse{
			Users:              users,
			OutstandingCredits: outstanding,
			RevenueWeek:        week,
			RevenueMonth:       month,
			RevenueYear:        year,
		})
	}
}

// reconcileHandler triggers an immediate sweep of stale pending payments,
// for operators who do not want to wait for the scheduler.
func reconcileHandler(whUC usecase.WebhookUseCase, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		n, err := whUC.SweepPending(r.Context(), time.Now().Add(-time.Minute), 200)
		if err != nil {
			log.Error().Err(err).Msg("manual reconcile failed")
			http.Error(w, "reconcile failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"examined": n})
	}
}
