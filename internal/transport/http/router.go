package http

import (
	"encoding/csv"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"trivia-chat-service/internal/app"
)

const csvDateLayout = "2006-01-02 15:04"

// NewRouter mounts the websocket game endpoint and the hall-of-fame REST surface.
func NewRouter(service *app.GameService, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	ws := NewWSHandler(service)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)
	r.Route("/api", func(api chi.Router) {
		api.Get("/hall-of-fame", hallOfFameJSON(service))
		api.Get("/hall-of-fame.csv", hallOfFameCSV(service))
	})
	return r
}

func limitParam(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func hallOfFameJSON(service *app.GameService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := limitParam(r)
		if !ok {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		entries, err := service.HallOfFame(r.Context(), limit)
		if err != nil {
			log.Printf("hall of fame: %v", err)
			writeJSON(w, http.StatusInternalServerError, newErrorPayload(err))
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func hallOfFameCSV(service *app.GameService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := limitParam(r)
		if !ok {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		entries, err := service.HallOfFame(r.Context(), limit)
		if err != nil {
			log.Printf("hall of fame: %v", err)
			http.Error(w, "hall of fame unavailable", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="salon_de_la_fama.csv"`)
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"ranking", "nombre", "puntaje", "fecha"})
		for i, e := range entries {
			_ = cw.Write([]string{strconv.Itoa(i + 1), e.Name, strconv.Itoa(e.Score), e.RecordedAt.Format(csvDateLayout)})
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			log.Printf("hall of fame csv: %v", err)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
