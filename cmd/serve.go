package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/ipwboot/internal/model"
	"github.com/sells-group/ipwboot/internal/report"
	"github.com/sells-group/ipwboot/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the results API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st, cfg.Server.RateLimit, cfg.Server.RateBurst, cfg.Estimate.ConfidenceLevel),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(st store.Store, rps float64, burst int, level float64) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	if rps > 0 {
		limiter := rate.NewLimiter(rate.Limit(rps), burst)
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if !limiter.Allow() {
					writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
					return
				}
				next.ServeHTTP(w, req)
			})
		})
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/runs", func(w http.ResponseWriter, req *http.Request) {
		filter := store.RunFilter{
			Status: model.RunStatus(req.URL.Query().Get("status")),
		}
		if v := req.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeJSONError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			filter.Limit = n
		}

		runs, err := st.ListRuns(req.Context(), filter)
		if err != nil {
			zap.L().Error("list runs", zap.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "list runs failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
	})

	r.Get("/api/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
		run, ok := fetchRun(w, req, st)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, run)
	})

	r.Get("/api/runs/{id}/distribution", func(w http.ResponseWriter, req *http.Request) {
		run, ok := fetchRun(w, req, st)
		if !ok {
			return
		}
		if run.Result == nil {
			writeJSONError(w, http.StatusConflict, "run has no result")
			return
		}

		summary, err := report.Summarize(run.Result, level)
		if err != nil {
			zap.L().Error("summarize run", zap.String("run", run.ID), zap.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "summarize failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"run_id":       run.ID,
			"summary":      summary,
			"distribution": run.Result.Distribution,
		})
	})

	return r
}

func fetchRun(w http.ResponseWriter, req *http.Request, st store.Store) (*model.Run, bool) {
	id := chi.URLParam(req, "id")
	run, err := st.GetRun(req.Context(), id)
	if err != nil {
		if eris.Is(err, store.ErrRunNotFound) {
			writeJSONError(w, http.StatusNotFound, "run not found")
			return nil, false
		}
		zap.L().Error("get run", zap.String("run", id), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "get run failed")
		return nil, false
	}
	return run, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
