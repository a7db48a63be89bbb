// Package session holds the authenticated identity of a running client.
// The store is constructed explicitly and passed down to the screens that
// need it; there is no ambient global. State starts as Unknown until the
// persisted credentials have been read, and navigation is gated on the
// resolved state.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/sinditur/odonto/pkg/domain"
)

// State is the session gate state.
type State int

const (
	// StateUnknown means persisted credentials have not been read yet;
	// the UI shows a blocking splash until resolution.
	StateUnknown State = iota
	// StateUnauthenticated routes the user into the login screen group.
	StateUnauthenticated
	// StateAuthenticated routes the user into the main app.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

const (
	tokenFile = "token"
	userFile  = "user.json"
)

// Store is the session/auth store: current identity, token, and gate state,
// persisted under a client-local directory. One instance per running
// client, shared by reference; all mutation happens on the UI loop.
type Store struct {
	dir   string
	state State
	token string
	user  *domain.Staff
}

// DefaultDir returns ~/.odonto.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "session: resolve home dir")
	}
	return filepath.Join(home, ".odonto"), nil
}

// NewStore creates a store rooted at dir in the Unknown state.
func NewStore(dir string) *Store {
	return &Store{dir: dir, state: StateUnknown}
}

// Load reads the persisted token and user record and resolves the gate
// state. Missing files, an unreadable user record, or an expired JWT all
// resolve to Unauthenticated; resolution never fails the caller.
func (s *Store) Load() State {
	tok, err := os.ReadFile(filepath.Join(s.dir, tokenFile))
	if err != nil {
		s.state = StateUnauthenticated
		return s.state
	}
	token := strings.TrimSpace(string(tok))
	if token == "" || tokenExpired(token) {
		s.state = StateUnauthenticated
		return s.state
	}

	raw, err := os.ReadFile(filepath.Join(s.dir, userFile))
	if err != nil {
		s.state = StateUnauthenticated
		return s.state
	}
	var user domain.Staff
	if err := json.Unmarshal(raw, &user); err != nil || user.ID == "" {
		s.state = StateUnauthenticated
		return s.state
	}

	s.token = token
	s.user = &user
	s.state = StateAuthenticated
	return s.state
}

// Login stores the credentials returned by a successful login call and
// persists them for the next startup.
func (s *Store) Login(token string, user *domain.Staff) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return errors.Wrap(err, "session: create state dir")
	}
	if err := os.WriteFile(filepath.Join(s.dir, tokenFile), []byte(token), 0600); err != nil {
		return errors.Wrap(err, "session: save token")
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "session: encode user")
	}
	if err := os.WriteFile(filepath.Join(s.dir, userFile), raw, 0600); err != nil {
		return errors.Wrap(err, "session: save user")
	}
	s.token = token
	s.user = user
	s.state = StateAuthenticated
	return nil
}

// Logout clears the persisted credentials and drops to Unauthenticated.
// Clearing files that are already gone is not an error.
func (s *Store) Logout() error {
	s.token = ""
	s.user = nil
	s.state = StateUnauthenticated
	for _, name := range []string{tokenFile, userFile} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "session: remove %s", name)
		}
	}
	return nil
}

// Invalidate drops the in-memory session without touching disk. Used when
// the API starts answering 401 mid-session.
func (s *Store) Invalidate() {
	s.token = ""
	s.user = nil
	s.state = StateUnauthenticated
}

// State returns the current gate state.
func (s *Store) State() State { return s.state }

// Token returns the auth token, empty unless authenticated.
func (s *Store) Token() string { return s.token }

// User returns the authenticated staff record, nil unless authenticated.
func (s *Store) User() *domain.Staff { return s.user }

// tokenExpired pre-checks JWT expiry so a stale token resolves to the login
// screen instead of a guaranteed 401 on first fetch. The signature is not
// verified here; that is the server's job; tokens that don't parse as JWTs
// are passed through opaque.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
