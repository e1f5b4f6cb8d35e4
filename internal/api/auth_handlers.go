/**
 * @description
 * This file defines the HTTP handlers for the authentication flow. Handlers
 * parse the request, call into the flow state machine, and answer with the
 * flow's fresh state so the client always renders from one snapshot.
 *
 * @dependencies
 * - Standard Go libraries for HTTP, JSON, etc.
 * - Chi router for URL parameter handling.
 * - The internal app package for the flow state machine.
 */
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bpay/dashboard-service/internal/app"
	"github.com/bpay/dashboard-service/internal/domain"
)

// AuthHandler holds the dependencies for auth-flow handlers.
type AuthHandler struct {
	flows *app.FlowManager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(flows *app.FlowManager) *AuthHandler {
	return &AuthHandler{flows: flows}
}

// CreateFlow starts a fresh flow in (login, credentials).
func (h *AuthHandler) CreateFlow(w http.ResponseWriter, r *http.Request) {
	flow := h.flows.Create()
	writeJSON(w, http.StatusCreated, flow.State())
}

// GetFlow returns the current flow state.
func (h *AuthHandler) GetFlow(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.flows.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "auth session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, flow.State())
}

// SubmitCredentials runs the credentials step for the flow's mode.
func (h *AuthHandler) SubmitCredentials(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.flows.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "auth session not found", http.StatusNotFound)
		return
	}

	var creds app.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := flow.SubmitCredentials(r.Context(), creds); err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flow.State())
}

// SetDigitRequest carries one slot of the code input.
type SetDigitRequest struct {
	Value string `json:"value"`
}

// SetDigit updates one digit of the code input.
func (h *AuthHandler) SetDigit(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.flows.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "auth session not found", http.StatusNotFound)
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid digit index", http.StatusBadRequest)
		return
	}

	var req SetDigitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := flow.SetDigit(index, req.Value); err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flow.State())
}

// SubmitCode verifies the populated code. On a terminal login resolution the
// flow is removed from the registry.
func (h *AuthHandler) SubmitCode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	flow, ok := h.flows.Get(id)
	if !ok {
		http.Error(w, "auth session not found", http.StatusNotFound)
		return
	}

	if err := flow.SubmitCode(r.Context()); err != nil {
		writeFlowError(w, err)
		return
	}

	state := flow.State()
	if state.SessionCreated {
		h.flows.Destroy(id)
	}
	writeJSON(w, http.StatusOK, state)
}

// ResendCode re-dispatches the verification code once the cooldown elapsed.
func (h *AuthHandler) ResendCode(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.flows.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "auth session not found", http.StatusNotFound)
		return
	}

	if err := flow.ResendCode(r.Context()); err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flow.State())
}

// GoBack returns from the code step to the credentials step.
func (h *AuthHandler) GoBack(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.flows.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "auth session not found", http.StatusNotFound)
		return
	}

	if err := flow.GoBack(); err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flow.State())
}

// SwitchModeRequest names the mode to switch to.
type SwitchModeRequest struct {
	Mode domain.AuthMode `json:"mode"`
}

// SwitchMode moves between login, register and forgot.
func (h *AuthHandler) SwitchMode(w http.ResponseWriter, r *http.Request) {
	flow, ok := h.flows.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "auth session not found", http.StatusNotFound)
		return
	}

	var req SwitchModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := flow.SwitchMode(req.Mode); err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flow.State())
}

// DestroyFlow abandons the flow, e.g. when the user navigates away.
func (h *AuthHandler) DestroyFlow(w http.ResponseWriter, r *http.Request) {
	h.flows.Destroy(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}
