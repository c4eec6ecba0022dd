package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kwv/starchart/chart"
	"github.com/kwv/starchart/traders"
)

// newHTTPServer creates the router for the map server.
func newHTTPServer(app *App) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(app.Logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := struct {
			Status    string    `json:"status"`
			Timestamp time.Time `json:"timestamp"`
			Agents    int       `json:"agents"`
			MQTT      bool      `json:"mqtt"`
		}{
			Status:    "ok",
			Timestamp: time.Now(),
			Agents:    app.Tracker.Len(),
			MQTT:      app.relay != nil && app.relay.IsConnected(),
		}
		writeJSON(w, app.Logger, status)
	})

	r.Get("/galaxy.png", func(w http.ResponseWriter, r *http.Request) {
		systems, err := app.Catalog.GalaxyEntities(r.Context())
		if err != nil {
			httpError(w, app.Logger, err)
			return
		}
		writeMap(w, app.Logger, app.Config.Render.Galaxy, systems, nil)
	})

	r.Get("/galaxy.svg", func(w http.ResponseWriter, r *http.Request) {
		systems, err := app.Catalog.GalaxyEntities(r.Context())
		if err != nil {
			httpError(w, app.Logger, err)
			return
		}
		renderer := chart.NewRenderer(app.Config.Render.Galaxy, app.Logger)
		layout, err := renderer.Layout(systems)
		if err != nil {
			httpError(w, app.Logger, err)
			return
		}
		var buf bytes.Buffer
		if err := renderer.RenderSVG(&buf, layout); err != nil {
			httpError(w, app.Logger, err)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache")
		if _, err := buf.WriteTo(w); err != nil {
			app.Logger.Error("Error writing galaxy SVG", "err", err)
		}
	})

	r.Get("/systems/{symbol}.png", func(w http.ResponseWriter, r *http.Request) {
		system, waypoints, err := app.Catalog.SystemEntities(r.Context(), chi.URLParam(r, "symbol"))
		if err != nil {
			httpError(w, app.Logger, err)
			return
		}
		title := chart.SystemTitle(system, len(waypoints))
		writeMap(w, app.Logger, app.Config.Render.System, waypoints, &title)
	})

	r.Get("/agents", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, app.Logger, app.Tracker.Snapshot())
	})

	return r
}

// writeMap renders entities and streams the PNG.
func writeMap(w http.ResponseWriter, logger *log.Logger, cfg chart.RenderConfig, entities []chart.Entity, title *chart.Title) {
	renderer := chart.NewRenderer(cfg, logger)
	layout, err := renderer.Layout(entities)
	if err != nil {
		httpError(w, logger, err)
		return
	}
	img, _, err := renderer.Render(layout, title)
	if err != nil {
		httpError(w, logger, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	if err := png.Encode(w, img); err != nil {
		logger.Error("Error encoding map PNG", "err", err)
	}
}

// httpError maps domain errors onto status codes.
func httpError(w http.ResponseWriter, logger *log.Logger, err error) {
	var (
		empty    *chart.NoEntitiesError
		tooLarge *chart.CanvasTooLargeError
	)
	switch {
	case errors.As(err, &empty):
		msg := "No systems stored yet"
		if empty.Scope == chart.ScopeSystem {
			msg = "No waypoints stored for this system"
		}
		http.Error(w, msg, http.StatusServiceUnavailable)
	case traders.IsNotFound(err):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.As(err, &tooLarge):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		logger.Error("Request failed", "err", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, logger *log.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response", "err", err)
	}
}

// requestLogger logs one line per request at debug level.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"took", time.Since(start).Round(time.Millisecond),
			)
		})
	}
}
