// Package api provides HTTP handlers for the caregiver agent endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/clockrules"
	"github.com/AAbdullahsalim/care-giver-AI-agent/internal/models"
)

// notifyTimeout bounds the background coordinator notification.
const notifyTimeout = 10 * time.Second

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Not found"))
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Caregiver agent API is running", nil))
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.chatHandler: processing chat request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.chatHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.chatHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.chatHandler: validation failed", "error", err, "user_name", req.UserName)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	resp, err := s.engine.ProcessMessage(r.Context(), req)
	if err != nil {
		slog.Error("Server.chatHandler: failed to process message", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process message"))
		return
	}

	slog.Info("Server.chatHandler: message processed", "scenario", resp.ScenarioDetected, "conversation_id", resp.ConversationID, "step", resp.ConversationStep)
	writeJSONResponse(w, http.StatusOK, models.Success(resp))
}

func (s *Server) clockInHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.clockInHandler: processing clock-in request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.clockInHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req models.ClockInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.clockInHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.clockInHandler: validation failed", "error", err, "caregiver", req.CaregiverName)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	resp, err := s.evaluator.EvaluateClockIn(r.Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidTimestamp) {
			slog.Warn("Server.clockInHandler: invalid timestamp", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
			return
		}
		slog.Error("Server.clockInHandler: evaluation failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to evaluate clock-in"))
		return
	}

	s.maybeNotify(req.CaregiverName, "clock-in", resp)
	slog.Info("Server.clockInHandler: clock-in evaluated", "caregiver", req.CaregiverName, "scenario", resp.ScenarioType, "priority", resp.Priority)
	writeJSONResponse(w, http.StatusOK, models.Success(resp))
}

func (s *Server) clockOutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.clockOutHandler: processing clock-out request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.clockOutHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req models.ClockOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.clockOutHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.clockOutHandler: validation failed", "error", err, "caregiver", req.CaregiverName)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	resp, err := s.evaluator.EvaluateClockOut(r.Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidTimestamp) {
			slog.Warn("Server.clockOutHandler: invalid timestamp", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
			return
		}
		slog.Error("Server.clockOutHandler: evaluation failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to evaluate clock-out"))
		return
	}

	s.maybeNotify(req.CaregiverName, "clock-out", resp)
	slog.Info("Server.clockOutHandler: clock-out evaluated", "caregiver", req.CaregiverName, "scenario", resp.ScenarioType, "priority", resp.Priority)
	writeJSONResponse(w, http.StatusOK, models.Success(resp))
}

func (s *Server) duplicateCallHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.duplicateCallHandler: processing duplicate-call request", "method", r.Method)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.duplicateCallHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(clockrules.DuplicateCall()))
}

// maybeNotify pages the coordinator in the background for high-priority
// scenarios. Delivery failures are logged only; the caregiver's response does
// not wait on or reflect them.
func (s *Server) maybeNotify(caregiver, event string, resp models.ScenarioResponse) {
	if resp.Priority != models.PriorityHigh {
		return
	}
	msg := fmt.Sprintf("Caregiver %s flagged on %s: %s", caregiver, event, resp.ScenarioType)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyCoordinator(ctx, msg); err != nil {
			slog.Error("Server.maybeNotify: coordinator notification failed", "error", err, "caregiver", caregiver)
		}
	}()
}
