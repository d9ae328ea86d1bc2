package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/go-pkgz/lgr"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/umputun/secsplit/app/enum"
	"github.com/umputun/secsplit/app/store"
)

//go:generate go run internal/schema/main.go schema.json

// defaultSessionCleanupInterval is the default interval for background cleanup of expired login sessions.
const defaultSessionCleanupInterval = 1 * time.Hour

// AuthConfig represents the auth configuration file (secsplit-auth.yml).
type AuthConfig struct {
	Users  []UserConfig  `yaml:"users,omitempty" json:"users,omitempty" jsonschema:"description=users allowed to log in for a bearer token"`
	Tokens []TokenConfig `yaml:"tokens,omitempty" json:"tokens,omitempty" jsonschema:"description=static API tokens"`
}

// UserConfig represents a user in the auth config file.
type UserConfig struct {
	Name        string             `yaml:"name" json:"name" jsonschema:"required"`
	Password    string             `yaml:"password" json:"password" jsonschema:"required"` // bcrypt hash
	Permissions []PermissionConfig `yaml:"permissions,omitempty" json:"permissions,omitempty"`
}

// TokenConfig represents an API token in the auth config file.
type TokenConfig struct {
	Token       string             `yaml:"token" json:"token" jsonschema:"required"`
	Permissions []PermissionConfig `yaml:"permissions,omitempty" json:"permissions,omitempty"`
}

// PermissionConfig represents a session-id-prefix permission pair in the config file.
type PermissionConfig struct {
	Prefix string `yaml:"prefix" json:"prefix" jsonschema:"required"`
	Access string `yaml:"access" json:"access" jsonschema:"required,enum=r,enum=read,enum=w,enum=write,enum=rw,enum=readwrite,enum=read-write"`
}

// User represents an authenticated user with ACL.
type User struct {
	Name         string
	PasswordHash string
	ACL          TokenACL // reuse ACL structure for permissions
}

// LoadAuthConfig reads, validates and parses the auth YAML file.
func LoadAuthConfig(path string) (*AuthConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is from CLI flag, controlled by admin
	if err != nil {
		return nil, fmt.Errorf("failed to read auth config file: %w", err)
	}

	// validate against embedded JSON schema
	if err := VerifyAuthConfig(data); err != nil {
		return nil, err
	}

	var cfg AuthConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse auth config file: %w", err)
	}

	return &cfg, nil
}

// prefixPerm represents a single prefix-permission pair, used for ordered matching.
type prefixPerm struct {
	prefix     string
	permission enum.Permission
}

// TokenACL defines access control for an API token over session ids.
type TokenACL struct {
	Token    string
	prefixes []prefixPerm // sorted by prefix length descending for longest-match-first
}

// loginSession is a bearer token issued by a successful login.
type loginSession struct {
	username  string
	expiresAt time.Time
}

// Auth handles authentication and authorization.
type Auth struct {
	mu              sync.RWMutex        // protects users, tokens, publicACL (config data)
	authFile        string              // path to auth config file for reloading
	users           map[string]User     // username -> User
	tokens          map[string]TokenACL // token string -> ACL
	publicACL       *TokenACL           // public access ACL (token="*"), nil if not configured
	sessMu          sync.RWMutex        // protects login sessions
	sessions        map[string]loginSession
	loginTTL        time.Duration
	cleanupInterval time.Duration // interval for session cleanup, defaults to 1h
}

// NewAuth creates a new Auth instance from configuration file.
// Returns nil if authFile is empty (authentication disabled).
func NewAuth(authFile string, loginTTL time.Duration) (*Auth, error) {
	if authFile == "" {
		return nil, nil //nolint:nilnil // nil auth means disabled, not an error
	}

	cfg, err := LoadAuthConfig(authFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load auth config: %w", err)
	}

	users, err := parseUsers(cfg.Users)
	if err != nil {
		return nil, fmt.Errorf("failed to parse users: %w", err)
	}

	tokens, publicACL, err := parseTokenConfigs(cfg.Tokens)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tokens: %w", err)
	}

	if len(users) == 0 && len(tokens) == 0 && publicACL == nil {
		return nil, errors.New("auth config must have at least one user or token")
	}

	if loginTTL == 0 {
		loginTTL = 24 * time.Hour
	}

	return &Auth{
		authFile:        authFile,
		users:           users,
		tokens:          tokens,
		publicACL:       publicACL,
		sessions:        make(map[string]loginSession),
		loginTTL:        loginTTL,
		cleanupInterval: defaultSessionCleanupInterval,
	}, nil
}

// parseUsers converts UserConfig slice to users map.
func parseUsers(configs []UserConfig) (map[string]User, error) {
	users := make(map[string]User)

	for _, uc := range configs {
		if uc.Name == "" {
			return nil, errors.New("user name cannot be empty")
		}
		if uc.Password == "" {
			return nil, fmt.Errorf("password hash cannot be empty for user %q", uc.Name)
		}
		if _, exists := users[uc.Name]; exists {
			return nil, fmt.Errorf("duplicate user name %q", uc.Name)
		}

		acl, err := parsePermissionConfigs(uc.Name, uc.Permissions)
		if err != nil {
			return nil, fmt.Errorf("invalid permissions for user %q: %w", uc.Name, err)
		}

		users[uc.Name] = User{
			Name:         uc.Name,
			PasswordHash: uc.Password,
			ACL:          acl,
		}
	}

	return users, nil
}

// parseTokenConfigs converts TokenConfig slice to tokens map and extracts public ACL.
// Returns (tokens map, public ACL or nil, error).
func parseTokenConfigs(configs []TokenConfig) (map[string]TokenACL, *TokenACL, error) {
	tokens := make(map[string]TokenACL)
	var publicACL *TokenACL

	for _, tc := range configs {
		if tc.Token == "" {
			return nil, nil, errors.New("token cannot be empty")
		}
		if _, exists := tokens[tc.Token]; exists {
			return nil, nil, fmt.Errorf("duplicate token %q", maskToken(tc.Token))
		}

		acl, err := parsePermissionConfigs(tc.Token, tc.Permissions)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid permissions for token %q: %w", maskToken(tc.Token), err)
		}

		// token "*" is treated as public access (no auth required)
		if tc.Token == "*" {
			if publicACL != nil {
				return nil, nil, errors.New("duplicate public token \"*\"")
			}
			publicACL = &acl
			continue // don't add to regular tokens map
		}

		tokens[tc.Token] = acl
	}

	return tokens, publicACL, nil
}

// parsePermissionConfigs converts PermissionConfig slice to TokenACL.
func parsePermissionConfigs(name string, configs []PermissionConfig) (TokenACL, error) {
	var acl TokenACL
	acl.Token = name
	seen := make(map[string]bool)

	for _, pc := range configs {
		if pc.Prefix == "" {
			return TokenACL{}, errors.New("prefix cannot be empty")
		}
		if seen[pc.Prefix] {
			return TokenACL{}, fmt.Errorf("duplicate prefix %q", pc.Prefix)
		}
		seen[pc.Prefix] = true

		perm, err := enum.ParsePermission(pc.Access)
		if err != nil {
			return TokenACL{}, fmt.Errorf("invalid access %q for prefix %q: expected r/w/rw", pc.Access, pc.Prefix)
		}

		acl.prefixes = append(acl.prefixes, prefixPerm{
			prefix:     pc.Prefix,
			permission: perm,
		})
	}

	// sort prefixes by length descending for longest-match-first
	sort.Slice(acl.prefixes, func(i, j int) bool {
		return len(acl.prefixes[i].prefix) > len(acl.prefixes[j].prefix)
	})

	return acl, nil
}

// Enabled returns true if authentication is enabled.
func (a *Auth) Enabled() bool {
	if a == nil {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.users) > 0 || len(a.tokens) > 0 || a.publicACL != nil
}

// Reload reloads the auth configuration from the file.
// Validates new config before applying. On success, invalidates login sessions
// only for users that were removed or had their password changed.
// On error, keeps the existing config and returns the error.
func (a *Auth) Reload() error {
	if a == nil {
		return errors.New("auth not enabled")
	}

	// capture old users state for selective session invalidation
	oldUsers := make(map[string]string) // username -> passwordHash
	a.mu.RLock()
	for name, user := range a.users {
		oldUsers[name] = user.PasswordHash
	}
	a.mu.RUnlock()

	// load and validate new config before acquiring any locks
	cfg, err := LoadAuthConfig(a.authFile)
	if err != nil {
		return fmt.Errorf("failed to load auth config: %w", err)
	}

	users, err := parseUsers(cfg.Users)
	if err != nil {
		return fmt.Errorf("failed to parse users: %w", err)
	}

	tokens, publicACL, err := parseTokenConfigs(cfg.Tokens)
	if err != nil {
		return fmt.Errorf("failed to parse tokens: %w", err)
	}

	if len(users) == 0 && len(tokens) == 0 && publicACL == nil {
		return errors.New("auth config must have at least one user or token")
	}

	a.mu.Lock()
	a.users = users
	a.tokens = tokens
	a.publicACL = publicACL
	a.mu.Unlock()

	// selective session invalidation: only for users removed or with password changes
	var invalidated []string
	for username, oldHash := range oldUsers {
		newUser, exists := users[username]
		if !exists || newUser.PasswordHash != oldHash {
			invalidated = append(invalidated, username)
		}
	}

	a.sessMu.Lock()
	for token, sess := range a.sessions {
		for _, username := range invalidated {
			if sess.username == username {
				delete(a.sessions, token)
			}
		}
	}
	a.sessMu.Unlock()

	if len(invalidated) > 0 {
		log.Printf("[INFO] auth config reloaded from %s, invalidated sessions for: %v", a.authFile, invalidated)
	} else {
		log.Printf("[INFO] auth config reloaded from %s, no sessions invalidated", a.authFile)
	}
	return nil
}

// StartWatcher starts watching the auth config file for changes.
// When the file changes, it reloads the configuration automatically.
// The watcher stops when the context is canceled.
func (a *Auth) StartWatcher(ctx context.Context) error {
	if a == nil {
		return errors.New("auth not enabled")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// watch the directory containing the auth file (not the file itself)
	// this catches atomic renames used by editors like vim/VSCode
	dir := filepath.Dir(a.authFile)
	filename := filepath.Base(a.authFile)

	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	log.Printf("[INFO] watching auth config file %s for changes", a.authFile)

	go func() {
		defer watcher.Close()

		var debounceTimer *time.Timer
		const debounceDelay = 100 * time.Millisecond

		for {
			select {
			case <-ctx.Done():
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				log.Printf("[INFO] auth config watcher stopped")
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				// only react to events on our auth file
				if filepath.Base(event.Name) != filename {
					continue
				}

				// react to write, create, rename events
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}

				// debounce rapid changes
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDelay, func() {
					if err := a.Reload(); err != nil {
						log.Printf("[WARN] failed to reload auth config: %v", err)
					}
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[WARN] auth config watcher error: %v", err)
			}
		}
	}()

	return nil
}

// ValidateUser checks if username/password are valid and returns the user.
// Returns nil if credentials are invalid.
// Uses constant-time comparison to prevent username enumeration via timing attacks.
func (a *Auth) ValidateUser(username, password string) *User {
	if a == nil {
		return nil
	}

	// dummy hash for constant-time comparison when user doesn't exist.
	// this is a valid bcrypt hash (cost=10) to ensure comparison takes similar time.
	const dummyHash = "$2a$10$C615A0mfUEFBupj9qcqhiuBEyf60EqrsakB90CozUoSON8d2Dc1uS"

	a.mu.RLock()
	user, exists := a.users[username]
	hashToCheck := dummyHash
	if exists {
		hashToCheck = user.PasswordHash
	}
	a.mu.RUnlock()

	// always run bcrypt comparison to prevent timing-based username enumeration
	if err := bcrypt.CompareHashAndPassword([]byte(hashToCheck), []byte(password)); err != nil || !exists {
		return nil
	}
	return &user
}

// CreateSession generates a new bearer token for the given username.
func (a *Auth) CreateSession(username string) (token string, expiresAt time.Time, err error) {
	if a == nil {
		return "", time.Time{}, errors.New("auth not enabled")
	}

	token = uuid.NewString()
	expiresAt = time.Now().Add(a.loginTTL)

	a.sessMu.Lock()
	a.sessions[token] = loginSession{username: username, expiresAt: expiresAt}
	a.sessMu.Unlock()
	return token, expiresAt, nil
}

// GetSessionUser returns the username for a valid, unexpired login session.
func (a *Auth) GetSessionUser(token string) (string, bool) {
	if a == nil {
		return "", false
	}

	a.sessMu.RLock()
	sess, ok := a.sessions[token]
	a.sessMu.RUnlock()
	if !ok || time.Now().After(sess.expiresAt) {
		return "", false
	}
	return sess.username, true
}

// InvalidateSession removes a login session.
func (a *Auth) InvalidateSession(token string) {
	if a == nil {
		return
	}
	a.sessMu.Lock()
	delete(a.sessions, token)
	a.sessMu.Unlock()
}

// StartCleanup starts background cleanup of expired login sessions.
// Runs periodically until context is canceled. Default interval is 1 hour.
func (a *Auth) StartCleanup(ctx context.Context) {
	if a == nil {
		return
	}

	interval := a.cleanupInterval
	if interval == 0 {
		interval = defaultSessionCleanupInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Printf("[INFO] session cleanup stopped")
				return
			case <-ticker.C:
				now := time.Now()
				deleted := 0
				a.sessMu.Lock()
				for token, sess := range a.sessions {
					if now.After(sess.expiresAt) {
						delete(a.sessions, token)
						deleted++
					}
				}
				a.sessMu.Unlock()
				if deleted > 0 {
					log.Printf("[INFO] cleaned up %d expired sessions", deleted)
				}
			}
		}
	}()

	log.Printf("[INFO] session cleanup started (interval: %s)", interval)
}

// GetTokenACL returns the ACL for a static token and whether it exists.
func (a *Auth) GetTokenACL(token string) (TokenACL, bool) {
	if a == nil {
		return TokenACL{}, false
	}
	a.mu.RLock()
	acl, ok := a.tokens[token]
	a.mu.RUnlock()
	return acl, ok
}

// CheckPermission checks if a token has the required permission for a session id.
func (a *Auth) CheckPermission(token, id string, needWrite bool) bool {
	acl, ok := a.GetTokenACL(token)
	if !ok {
		return false
	}
	return acl.CheckIDPermission(id, needWrite)
}

// CheckUserPermission checks if a user has the required permission for a session id.
// Returns true when auth is disabled (permissive by default).
func (a *Auth) CheckUserPermission(username, id string, needWrite bool) bool {
	if a == nil || !a.Enabled() {
		return true // no auth = everything allowed
	}
	a.mu.RLock()
	user, exists := a.users[username]
	a.mu.RUnlock()
	if !exists {
		return false
	}
	return user.ACL.CheckIDPermission(id, needWrite)
}

// FilterUserKeys filters session ids based on user's read permissions.
func (a *Auth) FilterUserKeys(username string, ids []string) []string {
	if a == nil || !a.Enabled() {
		return ids // no auth = show all sessions
	}
	a.mu.RLock()
	user, exists := a.users[username]
	a.mu.RUnlock()
	if !exists {
		return nil
	}

	// known user always gets a non-nil result, even when nothing matches
	filtered := make([]string, 0, len(ids))
	for _, id := range ids {
		if user.ACL.CheckIDPermission(id, false) {
			filtered = append(filtered, id)
		}
	}
	return filtered
}

// FilterTokenKeys filters session ids based on token's read permissions.
// Returns nil if token doesn't exist.
func (a *Auth) FilterTokenKeys(token string, ids []string) []string {
	if a == nil {
		return ids // no auth = show all sessions
	}
	a.mu.RLock()
	acl, ok := a.tokens[token]
	a.mu.RUnlock()
	if !ok {
		return nil
	}

	// known token always gets a non-nil result so callers can tell an empty
	// read set apart from an unknown token
	filtered := make([]string, 0, len(ids))
	for _, id := range ids {
		if acl.CheckIDPermission(id, false) {
			filtered = append(filtered, id)
		}
	}
	return filtered
}

// FilterPublicKeys filters session ids based on public ACL read permissions.
// Returns nil if public access is not configured.
func (a *Auth) FilterPublicKeys(ids []string) []string {
	if a == nil {
		return nil
	}
	a.mu.RLock()
	publicACL := a.publicACL
	a.mu.RUnlock()
	if publicACL == nil {
		return nil
	}

	// configured public access always gets a non-nil result
	filtered := make([]string, 0, len(ids))
	for _, id := range ids {
		if publicACL.CheckIDPermission(id, false) {
			filtered = append(filtered, id)
		}
	}
	return filtered
}

// CheckIDPermission checks if this ACL grants permission for a session id.
func (acl TokenACL) CheckIDPermission(id string, needWrite bool) bool {
	for _, pp := range acl.prefixes {
		if matchPrefix(pp.prefix, id) {
			if needWrite {
				return pp.permission.CanWrite()
			}
			return pp.permission.CanRead()
		}
	}
	return false
}

// matchPrefix checks if a session id matches a prefix pattern.
// "*" matches everything, "foo/*" matches ids starting with "foo/".
func matchPrefix(pattern, id string) bool {
	if pattern == "*" {
		return true
	}
	// remove trailing * for prefix matching
	if prefix, found := strings.CutSuffix(pattern, "*"); found {
		return strings.HasPrefix(id, prefix)
	}
	// exact match
	return pattern == id
}

// TokenAuth returns middleware that requires a valid Bearer token with
// appropriate permissions. The token can be a static API token from the
// config or a bearer issued by login. Public access (token="*") is checked
// first and allows unauthenticated requests. For list operations (no session
// id in the path), only validates the bearer, filtering happens in handler.
func (a *Auth) TokenAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// normalize the same way handlers do, so ACLs apply to the id the
		// session is actually stored under
		id := store.NormalizeKey(sessionIDFromPath(r.URL.Path))
		needWrite := r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodDelete
		isList := id == "" && r.Method == http.MethodGet // list operation has no session id

		// check public access first (token="*" in config)
		// for list operation, public access means pass-through (handler filters results)
		a.mu.RLock()
		publicACL := a.publicACL
		a.mu.RUnlock()
		if publicACL != nil {
			if isList || publicACL.CheckIDPermission(id, needWrite) {
				next.ServeHTTP(w, r)
				return
			}
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		// login-issued bearer resolves to the user's ACL
		if username, ok := a.GetSessionUser(token); ok {
			if isList {
				next.ServeHTTP(w, r)
				return
			}
			if !a.CheckUserPermission(username, id, needWrite) {
				log.Printf("[INFO] user %q denied %s access to session %q", username, r.Method, id)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		// static API token
		if _, ok := a.GetTokenACL(token); !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		// for list operation, just verify token exists (handler filters results)
		if isList {
			next.ServeHTTP(w, r)
			return
		}

		if !a.CheckPermission(token, id, needWrite) {
			log.Printf("[INFO] token %q denied %s access to session %q", maskToken(token), r.Method, id)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NoopAuth returns a pass-through middleware (used when auth is disabled).
func NoopAuth(next http.Handler) http.Handler {
	return next
}

// sessionIDFromPath extracts the session id from an API path like
// /api/v1/session/{id}. Returns empty string for non-session paths.
func sessionIDFromPath(path string) string {
	const marker = "/session/"
	idx := strings.Index(path, marker)
	if idx < 0 {
		return ""
	}
	return strings.Trim(path[idx+len(marker):], "/")
}

// maskToken returns a masked version of token for safe logging (shows first 4 chars).
func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + "****"
}
