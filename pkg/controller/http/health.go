package http

import (
	"net/http"
	"time"

	"github.com/secmon-lab/entelligence/pkg/usecase"
	"github.com/secmon-lab/entelligence/pkg/utils/errutil"
)

type healthResponse struct {
	OK        bool      `json:"ok"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
}

type healthDBResponse struct {
	OK     bool       `json:"ok"`
	DBTime *time.Time `json:"dbTime,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// healthHandler reports liveness and process uptime in seconds
func healthHandler(healthUC *usecase.HealthUseCase, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := now()
		writeJSON(r.Context(), w, http.StatusOK, healthResponse{
			OK:        true,
			Timestamp: t.UTC(),
			Uptime:    healthUC.Uptime(t).Seconds(),
		})
	}
}

func healthDBHandler(healthUC *usecase.HealthUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbTime, err := healthUC.DatabaseTime(r.Context())
		if err != nil {
			_ = errutil.Handle(r.Context(), err, "database health check failed")
			writeJSON(r.Context(), w, http.StatusInternalServerError, healthDBResponse{
				OK:    false,
				Error: "Database unavailable",
			})
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, healthDBResponse{OK: true, DBTime: &dbTime})
	}
}
