package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/oklog/ulid/v2"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/model"
)

// Options shape the development backend's behaviour.
type Options struct {
	// Latency is added before every request is handled.
	Latency time.Duration

	// FailRate is the fraction (0..1) of mutating requests answered with 503.
	FailRate float64

	// Rand returns values in [0,1). Defaults to math/rand.
	Rand func() float64
}

type server struct {
	store *Store
	opts  Options
}

// NewHandler serves the todo REST API backed by st.
func NewHandler(st *Store, opts Options) http.Handler {
	if opts.Rand == nil {
		opts.Rand = rand.Float64
	}
	s := &server{store: st, opts: opts}

	r := mux.NewRouter()
	r.Use(logRequests)
	r.Use(s.chaos)

	r.Methods(http.MethodGet).Path("/todos").HandlerFunc(s.list)
	r.Methods(http.MethodPost).Path("/todos").HandlerFunc(s.create)
	r.Methods(http.MethodPatch).Path("/todos/{id:[0-9]+}").HandlerFunc(s.update)
	r.Methods(http.MethodDelete).Path("/todos/{id:[0-9]+}").HandlerFunc(s.delete)
	return r
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(api.RequestIDHeader)
		if reqID == "" {
			reqID = ulid.Make().String()
		}
		w.Header().Set(api.RequestIDHeader, reqID)
		m := httpsnoop.CaptureMetrics(next, w, r)
		slog.Info("handled", "method", r.Method, "url", r.URL, "status", m.Code, "duration", m.Duration, "request_id", reqID)
	})
}

func (s *server) chaos(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Latency > 0 {
			select {
			case <-time.After(s.opts.Latency):
			case <-r.Context().Done():
				return
			}
		}
		if r.Method != http.MethodGet && s.opts.FailRate > 0 && s.opts.Rand() < s.opts.FailRate {
			writeError(w, http.StatusServiceUnavailable, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) list(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(r.URL.Query().Get("userId"))
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "userId query parameter must be a positive integer")
		return
	}
	todos, err := s.store.List(r.Context(), userID)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

func (s *server) create(w http.ResponseWriter, r *http.Request) {
	var in model.NewTodo
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	in.Title = model.CleanTitle(in.Title)
	if in.Title == "" {
		writeError(w, http.StatusBadRequest, "title must not be empty")
		return
	}
	if in.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "userId must be a positive integer")
		return
	}
	t, err := s.store.Create(r.Context(), in)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *server) update(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	var p model.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if p.Title != nil {
		clean := model.CleanTitle(*p.Title)
		if clean == "" {
			writeError(w, http.StatusBadRequest, "title must not be empty")
			return
		}
		p.Title = &clean
	}
	t, err := s.store.Update(r.Context(), id, p)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *server) delete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	slog.Error("store failure", "err", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(msg)})
}

// Serve runs h on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
