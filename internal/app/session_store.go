package app

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"askdocs/internal/pkg/sessiontoken"
	"askdocs/internal/rag"
)

// Session is the in-memory state behind one session token. The pipeline is
// built once and only read afterwards.
type Session struct {
	ID        string
	Kind      string
	Title     string
	CreatedAt time.Time
	ExpiresAt time.Time

	Pipeline *rag.Pipeline
	// Store backs Pipeline when it lives outside the process; it is reset
	// when the session ends.
	Store rag.VectorStore
	Voice []byte
	Tutor *TutorState
}

const releaseTimeout = 5 * time.Second

type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration

	tokenSecret string
	tokenTTL    time.Duration

	now func() time.Time
}

func NewSessionStore(ttl time.Duration, tokenSecret string, tokenTTL time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if tokenTTL <= 0 {
		tokenTTL = ttl
	}
	return &SessionStore{
		sessions:    make(map[string]*Session),
		ttl:         ttl,
		tokenSecret: tokenSecret,
		tokenTTL:    tokenTTL,
		now:         time.Now,
	}
}

// Create registers a new session with a fresh UUID. Expired sessions are
// dropped on the way.
func (s *SessionStore) Create(kind, title string) *Session {
	s.Sweep()
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Kind:      kind,
		Title:     title,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.Put(sess)
	return sess
}

func (s *SessionStore) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

// Get returns ErrSessionNotFound for unknown and expired sessions.
func (s *SessionStore) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !s.now().Before(sess.ExpiresAt) {
		s.Delete(id)
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		release(sess)
	}
}

// Sweep drops expired sessions and returns how many were removed.
func (s *SessionStore) Sweep() int {
	now := s.now()
	var expired []*Session
	s.mu.Lock()
	for id, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(s.sessions, id)
			expired = append(expired, sess)
		}
	}
	s.mu.Unlock()
	for _, sess := range expired {
		release(sess)
	}
	return len(expired)
}

// release drops the external index of an ended session.
func release(sess *Session) {
	if sess.Store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := sess.Store.Reset(ctx); err != nil {
		log.Printf("release index of session %s failed: %v", sess.ID, err)
	}
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Issue signs a bearer token for sess.
func (s *SessionStore) Issue(sess *Session) (string, error) {
	return sessiontoken.GenerateToken(s.tokenSecret, s.tokenTTL, sess.ID, sess.Kind)
}

func (s *SessionStore) TTL() time.Duration { return s.ttl }
