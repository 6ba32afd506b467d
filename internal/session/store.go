package session

import (
	"encoding/json"
	"sync"

	"github.com/evertrade/vendorgate/internal/log"
	"github.com/evertrade/vendorgate/internal/store"
)

// Store is the session state container: an in-memory Session plus its
// persisted snapshot in the durable client store.
//
// Commit and Clear replace the in-memory value first and treat durable
// write failures as log-only events. A broken disk must never throw a
// logged-in user into an error path.
type Store struct {
	kv     store.KV
	logger *log.Logger

	mu      sync.RWMutex
	current Session
}

// NewStore creates a store over kv and hydrates it synchronously, so
// callers have a best-guess session before any network call resolves.
func NewStore(kv store.KV, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}

	s := &Store{kv: kv, logger: logger}
	s.Hydrate()
	return s
}

// Hydrate loads the persisted snapshot into memory and returns it.
// A missing or unreadable snapshot hydrates to the empty session.
func (s *Store) Hydrate() Session {
	sess := Empty()

	raw, ok, err := s.kv.Get(store.KeyUser)
	if err != nil {
		s.logger.Warn("session snapshot unreadable", "error", err.Error())
	} else if ok {
		if err := json.Unmarshal([]byte(raw), &sess); err != nil {
			s.logger.Warn("session snapshot corrupt, ignoring", "error", err.Error())
			sess = Empty()
		}
	}

	// The marker key is authoritative for token presence; an auth_user
	// snapshot without its marker does not count as authenticated.
	if token, ok, err := s.kv.Get(store.KeyToken); err == nil && ok {
		sess.Token = token
	} else if sess.Token != "" && !ok {
		sess.Token = ""
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	return sess
}

// Current returns the in-memory session
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// IsAuthenticated reports whether the current session is authenticated
func (s *Store) IsAuthenticated() bool {
	return s.Current().IsAuthenticated()
}

// Commit replaces the session wholesale, in memory and durably. The
// durable write is best-effort; its failure leaves only the in-memory
// copy updated and is logged, never propagated.
func (s *Store) Commit(sess Session) {
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	raw, err := json.Marshal(sess)
	if err != nil {
		s.logger.Warn("session snapshot unserializable", "error", err.Error())
		return
	}

	if err := s.kv.Set(store.KeyUser, string(raw)); err != nil {
		s.logger.Warn("session snapshot write failed", "error", err.Error())
		return
	}
	if err := s.kv.Set(store.KeyToken, sess.Token); err != nil {
		s.logger.Warn("session marker write failed", "error", err.Error())
	}
}

// Clear resets the session to empty and removes the persisted snapshot
func (s *Store) Clear() {
	s.mu.Lock()
	s.current = Empty()
	s.mu.Unlock()

	if err := s.kv.Delete(store.KeyUser); err != nil {
		s.logger.Warn("session snapshot delete failed", "error", err.Error())
	}
	if err := s.kv.Delete(store.KeyToken); err != nil {
		s.logger.Warn("session marker delete failed", "error", err.Error())
	}
}
