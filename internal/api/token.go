package api

import "sync"

// TokenHolder is a threadsafe mutable TokenSource shared between the
// session manager (which writes it) and the client (which reads it on
// every request).
type TokenHolder struct {
	mu    sync.RWMutex
	token string
}

// NewTokenHolder returns an empty holder.
func NewTokenHolder() *TokenHolder {
	return &TokenHolder{}
}

// Token returns the current bearer token, or "" when unauthenticated.
func (h *TokenHolder) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Set replaces the current token. An empty string clears it.
func (h *TokenHolder) Set(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = token
}
