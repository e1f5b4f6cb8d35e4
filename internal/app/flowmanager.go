/**
 * @description
 * This file implements the registry of live authentication flows. Each
 * browser session that opens the auth screen gets its own flow, keyed by a
 * generated id the client echoes back on every step.
 */
package app

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FlowManager owns the live auth flows.
type FlowManager struct {
	identity IdentityAPI
	sessions *SessionStore
	logger   *slog.Logger

	mu    sync.Mutex
	flows map[string]*AuthFlow
}

// NewFlowManager creates an empty flow registry.
func NewFlowManager(identity IdentityAPI, sessions *SessionStore, logger *slog.Logger) *FlowManager {
	return &FlowManager{
		identity: identity,
		sessions: sessions,
		logger:   logger,
		flows:    map[string]*AuthFlow{},
	}
}

// Create starts a new flow in (login, credentials).
func (m *FlowManager) Create() *AuthFlow {
	flow := NewAuthFlow(uuid.NewString(), m.identity, m.sessions, m.logger)
	m.mu.Lock()
	m.flows[flow.id] = flow
	m.mu.Unlock()
	return flow
}

// Get returns the flow for an id, or false when it does not exist or has
// already resolved.
func (m *FlowManager) Get(id string) (*AuthFlow, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	flow, ok := m.flows[id]
	return flow, ok
}

// Destroy tears a flow down and removes it from the registry. Used when the
// client navigates away and on terminal resolution.
func (m *FlowManager) Destroy(id string) {
	m.mu.Lock()
	flow, ok := m.flows[id]
	delete(m.flows, id)
	m.mu.Unlock()
	if ok {
		flow.Destroy()
	}
}

// ReapIdle destroys flows untouched for longer than maxIdle. Abandoned
// browser tabs would otherwise leak flows and their timers.
func (m *FlowManager) ReapIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	var stale []*AuthFlow
	for id, flow := range m.flows {
		flow.mu.Lock()
		expired := flow.destroyed || flow.lastTouched.Before(cutoff)
		flow.mu.Unlock()
		if expired {
			stale = append(stale, flow)
			delete(m.flows, id)
		}
	}
	m.mu.Unlock()

	for _, flow := range stale {
		flow.Destroy()
	}
	if len(stale) > 0 {
		m.logger.Info("reaped idle auth flows", "count", len(stale))
	}
	return len(stale)
}
