package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"statement_analyst/pkg/core/calc"
	"statement_analyst/pkg/core/conversation"
)

// SessionStore keeps live analysis sessions in memory. Entries expire after
// the configured TTL of inactivity; nothing is persisted.
type SessionStore struct {
	cache *cache.Cache
	ttl   time.Duration
	opts  conversation.Options
}

// NewSessionStore creates a store whose sessions expire after ttl and are
// built with opts.
func NewSessionStore(ttl time.Duration, opts conversation.Options) *SessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionStore{
		cache: cache.New(ttl, 10*time.Minute),
		ttl:   ttl,
		opts:  opts,
	}
}

// Create starts a session for a freshly uploaded statement.
func (s *SessionStore) Create(fileName string, analysis *calc.Analysis) *conversation.Session {
	session := conversation.NewSession(uuid.NewString(), fileName, analysis, s.opts)
	s.cache.Set(session.ID, session, cache.DefaultExpiration)
	return session
}

// Get returns the session and refreshes its expiry.
func (s *SessionStore) Get(sessionID string) (*conversation.Session, bool) {
	x, found := s.cache.Get(sessionID)
	if !found {
		return nil, false
	}
	session := x.(*conversation.Session)
	s.cache.Set(sessionID, session, cache.DefaultExpiration)
	return session, true
}

func (s *SessionStore) Delete(sessionID string) {
	s.cache.Delete(sessionID)
}

func (s *SessionStore) Len() int {
	return s.cache.ItemCount()
}
