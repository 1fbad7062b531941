package httpserver

import "net/http"

// Routes groups handlers. Authenticated endpoints are wrapped by Auth.
type Routes struct {
	Login      http.HandlerFunc
	RecentLogs http.HandlerFunc
	DailyStats http.HandlerFunc
	Health     http.HandlerFunc
	Auth       func(http.Handler) http.Handler
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	protect := routes.Auth
	if protect == nil {
		protect = func(next http.Handler) http.Handler { return next }
	}

	if routes.Login != nil {
		mux.Handle("/api/v1/login", method(http.MethodPost, routes.Login))
	}
	if routes.RecentLogs != nil {
		mux.Handle("/api/v1/logs/recent", protect(method(http.MethodGet, routes.RecentLogs)))
	}
	if routes.DailyStats != nil {
		mux.Handle("/api/v1/stats/daily", protect(method(http.MethodGet, routes.DailyStats)))
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
