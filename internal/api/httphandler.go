package api

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"lingodrill/internal/flow"
	"lingodrill/internal/ports"
	"lingodrill/internal/types"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	Orchestrator *flow.Orchestrator
	Validator    *flow.Validator
	Profiles     ports.ProfileStore
	Exercises    ports.ExerciseSource
}

func NewHandler(o *flow.Orchestrator, v *flow.Validator, profiles ports.ProfileStore, exercises ports.ExerciseSource) *Handler {
	return &Handler{
		Orchestrator: o,
		Validator:    v,
		Profiles:     profiles,
		Exercises:    exercises,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/next-action", h.handleNextAction)
	mux.HandleFunc("/attempts/validate", h.handleValidate)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

type nextActionRequest struct {
	UserID int64  `json:"user_id"`
	BotID  string `json:"bot_id"`
}

func (h *Handler) handleNextAction(w http.ResponseWriter, r *http.Request) {
	var req nextActionRequest
	if !readBody(w, r, &req) {
		return
	}
	if req.UserID == 0 || req.BotID == "" {
		http.Error(w, "user_id and bot_id are required", http.StatusBadRequest)
		return
	}
	log.WithFields(log.Fields{"user_id": req.UserID, "bot_id": req.BotID, "ip": clientIP(r)}).
		Debug("next action requested")
	action, err := h.Orchestrator.GetNextAction(r.Context(), req.UserID, req.BotID)
	if err != nil {
		if errors.Is(err, types.ErrInvalidState) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := writeJSON(w, http.StatusOK, action); err != nil {
		http.Error(w, "failed to write response", http.StatusInternalServerError)
	}
}

type validateRequest struct {
	UserID     int64  `json:"user_id"`
	BotID      string `json:"bot_id"`
	ExerciseID int64  `json:"exercise_id"`
	Answer     string `json:"answer"`
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !readBody(w, r, &req) {
		return
	}
	if req.UserID == 0 || req.BotID == "" || req.ExerciseID == 0 {
		http.Error(w, "user_id, bot_id and exercise_id are required", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	profile, err := h.Profiles.Get(ctx, req.UserID, req.BotID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			http.Error(w, "unknown user", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	ex, err := h.Exercises.GetByID(ctx, req.ExerciseID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if ex == nil {
		http.Error(w, "unknown exercise", http.StatusNotFound)
		return
	}
	attempt, err := h.Validator.Validate(ctx, profile, *ex, req.Answer)
	if err != nil {
		if errors.Is(err, types.ErrInvalidState) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := writeJSON(w, http.StatusOK, attempt); err != nil {
		http.Error(w, "failed to write response", http.StatusInternalServerError)
	}
}

// readBody decodes a size-limited JSON request body into v. Writes the error
// response itself and returns false on failure.
func readBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return false
	}
	defer func() {
		_ = r.Body.Close()
	}()
	if len(body) == 0 {
		http.Error(w, "empty body", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

// clientIP extracts the real client IP from X-Forwarded-For or RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// If SplitHostPort fails, return the RemoteAddr as-is
		return r.RemoteAddr
	}
	return host
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}
