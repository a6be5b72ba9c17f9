// handlers/health.go
package handlers

import (
	"context"
	"net/http"
	"time"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				fail(w, http.StatusServiceUnavailable, "database_unavailable", "database unreachable")
				return
			}
		}
		success(w, map[string]string{"status": "ok"})
	}
}
