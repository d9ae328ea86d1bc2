package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"

	"github.com/umputun/secsplit/app/shares"
	"github.com/umputun/secsplit/app/store"
)

// saveRequest is the body of POST /api/v1/session/{id}.
type saveRequest struct {
	Keys []string          `json:"keys,omitempty"` // subset of data keys to persist, empty = all
	Data map[string]string `json:"data"`
}

// loginRequest is the body of POST /auth/login.
type loginRequest struct {
	User   string `json:"user"`
	Passwd string `json:"passwd"`
}

// saveHandler splits and persists session values.
// POST /api/v1/session/{id}
func (s *Server) saveHandler(w http.ResponseWriter, r *http.Request) {
	id := store.NormalizeKey(r.PathValue("id"))
	if id == "" {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, nil, "session id is required")
		return
	}

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, err, "failed to parse request body")
		return
	}

	if err := s.sessions.Save(r.Context(), id, req.Keys, req.Data); err != nil {
		if errors.Is(err, shares.ErrOverflow) {
			rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, err, "value too large")
			return
		}
		rest.SendErrorJSON(w, r, log.Default(), http.StatusInternalServerError, err, "failed to save session")
		return
	}

	log.Printf("[INFO] saved session %q (%d fields) by %s", id, len(req.Data), s.identityForLog(r))
	rest.RenderJSON(w, rest.JSON{"session": id, "fields": len(req.Data)})
}

// loadHandler reconstructs session values from both stores.
// GET /api/v1/session/{id}
// Optional repeated query param: ?key=user&key=theme (restrict to listed keys)
func (s *Server) loadHandler(w http.ResponseWriter, r *http.Request) {
	id := store.NormalizeKey(r.PathValue("id"))
	if id == "" {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, nil, "session id is required")
		return
	}

	data, err := s.sessions.Load(r.Context(), id, r.URL.Query()["key"])
	if err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusInternalServerError, err, "failed to load session")
		return
	}

	log.Printf("[DEBUG] loaded session %q (%d fields)", id, len(data))
	rest.RenderJSON(w, rest.JSON{"session": id, "data": data})
}

// clearHandler removes all stored shares for a session.
// DELETE /api/v1/session/{id}
func (s *Server) clearHandler(w http.ResponseWriter, r *http.Request) {
	id := store.NormalizeKey(r.PathValue("id"))
	if id == "" {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, nil, "session id is required")
		return
	}

	if err := s.sessions.Clear(r.Context(), id); err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusInternalServerError, err, "failed to clear session")
		return
	}

	log.Printf("[INFO] cleared session %q by %s", id, s.identityForLog(r))
	rest.RenderJSON(w, rest.JSON{"session": id, "status": "cleared"})
}

// listHandler returns metadata for all sessions the caller can read.
// GET /api/v1/sessions
func (s *Server) listHandler(w http.ResponseWriter, r *http.Request) {
	docs, err := s.sessions.List(r.Context())
	if err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusInternalServerError, err, "failed to list sessions")
		return
	}

	// extract session ids for auth filtering
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.Slot
	}

	filteredIDs := s.filterSessionsByAuth(r, ids)
	if filteredIDs == nil {
		// no valid auth, but this shouldn't happen since tokenAuth middleware already checked
		rest.SendErrorJSON(w, r, log.Default(), http.StatusUnauthorized, nil, "unauthorized")
		return
	}

	idSet := make(map[string]bool, len(filteredIDs))
	for _, id := range filteredIDs {
		idSet[id] = true
	}
	filtered := make([]store.DocInfo, 0, len(filteredIDs))
	for _, d := range docs {
		if idSet[d.Slot] {
			filtered = append(filtered, d)
		}
	}

	log.Printf("[DEBUG] list sessions: %d found, %d after auth filter", len(docs), len(filtered))
	rest.RenderJSON(w, filtered)
}

// filterSessionsByAuth filters session ids based on the caller's credentials.
// returns nil if auth is required but caller has no valid credentials.
// priority: login bearer > static token > public ACL
func (s *Server) filterSessionsByAuth(r *http.Request, ids []string) []string {
	if !s.auth.Enabled() {
		return ids
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if username, ok := s.auth.GetSessionUser(token); ok {
			return s.auth.FilterUserKeys(username, ids)
		}
		if filtered := s.auth.FilterTokenKeys(token, ids); filtered != nil {
			return filtered
		}
	}

	// fall back to public access for unauthenticated requests
	if filtered := s.auth.FilterPublicKeys(ids); filtered != nil {
		return filtered
	}

	return nil // no valid auth
}

// loginHandler exchanges user credentials for a bearer token.
// POST /auth/login
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, err, "failed to parse request body")
		return
	}

	user := s.auth.ValidateUser(req.User, req.Passwd)
	if user == nil {
		log.Printf("[INFO] failed login attempt for user %q", req.User)
		rest.SendErrorJSON(w, r, log.Default(), http.StatusForbidden, nil, "invalid credentials")
		return
	}

	token, expiresAt, err := s.auth.CreateSession(user.Name)
	if err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusInternalServerError, err, "failed to create session")
		return
	}

	log.Printf("[INFO] user %q logged in", user.Name)
	rest.RenderJSON(w, rest.JSON{"token": token, "expires_at": expiresAt.Format(time.RFC3339)})
}

// logoutHandler invalidates the caller's bearer token.
// POST /auth/logout
func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, nil, "bearer token is required")
		return
	}
	s.auth.InvalidateSession(strings.TrimPrefix(authHeader, "Bearer "))
	rest.RenderJSON(w, rest.JSON{"status": "logged out"})
}

// identityForLog returns a short caller identity for log lines.
func (s *Server) identityForLog(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "public"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if username, ok := s.auth.GetSessionUser(token); ok {
		return "user " + username
	}
	return "token " + maskToken(token)
}
