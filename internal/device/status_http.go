package device

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/gaspardpetit/rwv/internal/logx"
)

// URLOpener sends an OpenURL request to the server.
type URLOpener interface {
	OpenURL(url string) bool
}

type openURLRequest struct {
	URL string `json:"url"`
}

// NewStatusHandler returns the local status and control API.
func NewStatusHandler(opener URLOpener, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		}))
	}
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, snapshot())
	})
	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, GetVersionInfo())
	})
	r.Route("/api", func(ar chi.Router) {
		ar.Post("/open-url", func(w http.ResponseWriter, r *http.Request) {
			var req openURLRequest
			if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024)).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_request"})
				return
			}
			if !opener.OpenURL(req.URL) {
				writeJSON(w, http.StatusConflict, map[string]any{"error": "not_sent"})
				return
			}
			logx.Log.Info().Str("url", req.URL).Msg("url opened via status api")
			writeJSON(w, http.StatusOK, map[string]any{"url": req.URL})
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// StartStatusServer starts an HTTP server exposing the status API.
// It returns the address it is listening on.
func StartStatusServer(ctx context.Context, addr string, opener URLOpener, allowedOrigins []string) (string, error) {
	srv := &http.Server{Handler: NewStatusHandler(opener, allowedOrigins), ReadHeaderTimeout: 5 * time.Second}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	actual := ln.Addr().String()
	go func() {
		<-ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logx.Log.Error().Err(err).Str("addr", actual).Msg("status server error")
		}
	}()
	return actual, nil
}
