package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cortex/internal/agent"
	"cortex/internal/config"
	"cortex/internal/logging"
)

// shutdownResponseDelay gives the shutdown response time to reach the client
// before the listener goes away.
const shutdownResponseDelay = 2 * time.Second

const defaultThoughtCount = 10

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

type interactRequest struct {
	Message string `json:"message"`
}

type interactResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	ActionID string `json:"action_id"`
}

type bannerResponse struct {
	Name      string   `json:"name"`
	State     string   `json:"state"`
	Endpoints []string `json:"endpoints"`
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.API.Bind),
		logger: logging.NewComponentLogger(logger, "api"),
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.handleBanner)
	mux.HandleFunc("/status", srv.handleStatus)
	mux.HandleFunc("/models", srv.handleModels)
	mux.HandleFunc("/thoughts", srv.handleThoughts)
	mux.HandleFunc("/interact", srv.handleInteract)
	mux.HandleFunc("/shutdown", srv.handleShutdown)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// addr returns the bound address, useful when the configuration asked for
// port zero.
func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleBanner(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	snap := s.daemon.Status()
	s.writeJSON(w, http.StatusOK, bannerResponse{
		Name:      snap.Name,
		State:     string(snap.State),
		Endpoints: []string{"/status", "/models", "/thoughts", "/interact", "/shutdown"},
	})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Status())
}

func (s *apiServer) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	loaded := []string{}
	if s.daemon.cache != nil {
		loaded = s.daemon.cache.Names()
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"models": loaded,
		"count":  len(loaded),
	})
}

func (s *apiServer) handleThoughts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	count := defaultThoughtCount
	if raw := strings.TrimSpace(r.URL.Query().Get("count")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, "count must be a positive integer")
			return
		}
		count = parsed
	}

	thoughts := []agent.Thought{}
	if s.daemon.loop != nil {
		thoughts = s.daemon.loop.RecentThoughts(count)
	}
	payload := map[string]any{
		"thoughts": thoughts,
		"count":    len(thoughts),
	}
	if s.daemon.journal != nil {
		if stats, err := s.daemon.journal.Stats(r.Context()); err == nil {
			payload["recorded"] = stats.Thoughts
		}
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleInteract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req interactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	action := agent.NewAction(agent.KindUserInteraction, map[string]any{
		"message": req.Message,
		"source":  "api",
	})
	s.daemon.queue.Enqueue(action)

	s.logger.Info("interaction queued",
		logging.String(logging.FieldActionID, action.ID),
	)
	s.writeJSON(w, http.StatusAccepted, interactResponse{
		Status:   "received",
		Message:  req.Message,
		ActionID: action.ID,
	})
}

func (s *apiServer) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s.daemon.RequestShutdown(shutdownResponseDelay)
	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "shutting down",
	})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSON(w, statusCode, map[string]string{"error": message})
}
