package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"askdocs/internal/cache"
	"askdocs/internal/model"
	"askdocs/internal/rag"
)

// StoreFactory returns the vector store backing one session's index. A nil
// factory or a nil store means the in-process store.
type StoreFactory func(sessionID string) rag.VectorStore

type DocumentService struct {
	embedder rag.Embedder
	gen      rag.Generator
	sessions *SessionStore
	chunking rag.ChunkerConfig
	topK     int

	memo     cache.Memo
	memoTag  string
	stores   StoreFactory
	recorder DocumentRecorder
}

type DocumentOption func(*DocumentService)

// WithIndexMemo caches index snapshots under tag, typically the embedding model.
func WithIndexMemo(memo cache.Memo, tag string) DocumentOption {
	return func(s *DocumentService) {
		s.memo = memo
		s.memoTag = tag
	}
}

func WithStoreFactory(f StoreFactory) DocumentOption {
	return func(s *DocumentService) { s.stores = f }
}

func WithRecorder(r DocumentRecorder) DocumentOption {
	return func(s *DocumentService) { s.recorder = r }
}

func NewDocumentService(
	embedder rag.Embedder,
	gen rag.Generator,
	sessions *SessionStore,
	chunking rag.ChunkerConfig,
	topK int,
	opts ...DocumentOption,
) *DocumentService {
	s := &DocumentService{
		embedder: embedder,
		gen:      gen,
		sessions: sessions,
		chunking: chunking,
		topK:     topK,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type IngestInput struct {
	Name   string
	Source string
	Text   string
	// Chunking overrides the service default when MaxLength is set.
	Chunking rag.ChunkerConfig
	Voice    []byte
}

type IngestResult struct {
	SessionID    string    `json:"session_id"`
	SessionToken string    `json:"session_token"`
	Name         string    `json:"name"`
	SegmentCount int       `json:"segment_count"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Ingest chunks and indexes text into a new session.
func (s *DocumentService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, fmt.Errorf("document text is empty: %w", rag.ErrInvalidInput)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = "document"
	}
	source := input.Source
	if source == "" {
		source = model.SourceText
	}
	chunking := s.chunking
	if input.Chunking.MaxLength > 0 {
		chunking = input.Chunking
	}

	sess := s.sessions.Create(kindForSource(source), name)
	store := s.store(sess.ID)
	index, err := s.buildIndex(ctx, store, text, chunking)
	if err != nil {
		s.sessions.Delete(sess.ID)
		return nil, err
	}
	sess.Pipeline = rag.NewPipeline(index, rag.NewSynthesizer(s.gen), s.topK)
	sess.Store = store
	sess.Voice = input.Voice

	if s.recorder != nil {
		snap, _ := index.Snapshot()
		err := s.recorder.SaveSession(
			&model.Session{ID: sess.ID, Kind: sess.Kind, Title: name, CreatedAt: sess.CreatedAt, ExpiresAt: sess.ExpiresAt},
			&model.Document{Name: name, Source: source, ContentHash: contentHash(text)},
			snap,
		)
		if err != nil {
			log.Printf("persist document session %s failed: %v", sess.ID, err)
		}
	}

	token, err := s.sessions.Issue(sess)
	if err != nil {
		s.sessions.Delete(sess.ID)
		return nil, fmt.Errorf("issue session token failed: %w", err)
	}
	return &IngestResult{
		SessionID:    sess.ID,
		SessionToken: token,
		Name:         name,
		SegmentCount: index.Len(),
		ExpiresAt:    sess.ExpiresAt,
	}, nil
}

// Ask answers question from the session's index. k <= 0 uses the default.
func (s *DocumentService) Ask(ctx context.Context, sessionID, question string, k int) (*rag.Answer, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Pipeline == nil {
		return nil, ErrWrongSessionKind
	}
	return sess.Pipeline.Ask(ctx, question, k)
}

// session looks up the in-memory session and falls back to the recorder.
func (s *DocumentService) session(ctx context.Context, id string) (*Session, error) {
	sess, err := s.sessions.Get(id)
	if err == nil || s.recorder == nil {
		return sess, err
	}

	stored, snap, loadErr := s.recorder.LoadSession(id, time.Now())
	if loadErr != nil {
		log.Printf("load session %s failed: %v", id, loadErr)
		return nil, ErrSessionNotFound
	}
	if stored == nil {
		return nil, ErrSessionNotFound
	}
	store := s.store(id)
	index := rag.NewIndex(s.embedder, store)
	if err := index.Restore(ctx, *snap); err != nil {
		return nil, fmt.Errorf("restore session %s failed: %w", id, err)
	}
	sess = &Session{
		ID:        stored.ID,
		Kind:      stored.Kind,
		Title:     stored.Title,
		CreatedAt: stored.CreatedAt,
		ExpiresAt: stored.ExpiresAt,
		Pipeline:  rag.NewPipeline(index, rag.NewSynthesizer(s.gen), s.topK),
		Store:     store,
	}
	s.sessions.Put(sess)
	return sess, nil
}

func (s *DocumentService) buildIndex(ctx context.Context, store rag.VectorStore, text string, chunking rag.ChunkerConfig) (*rag.Index, error) {
	index := rag.NewIndex(s.embedder, store)

	key := cache.Key("index", s.memoTag,
		strconv.Itoa(chunking.MaxLength), strconv.Itoa(chunking.Overlap),
		strconv.FormatFloat(chunking.BoundaryFraction, 'f', -1, 64), text)
	if s.memo != nil {
		var snap rag.Snapshot
		ok, err := s.memo.Get(ctx, key, &snap)
		if err != nil {
			log.Printf("index memo get failed: %v", err)
		} else if ok {
			if err := index.Restore(ctx, snap); err == nil {
				return index, nil
			}
			log.Printf("index memo restore failed: %v", err)
		}
	}

	segments, err := rag.Chunk(text, chunking)
	if err != nil {
		return nil, err
	}
	if err := index.Build(ctx, segments); err != nil {
		return nil, err
	}

	if s.memo != nil {
		if snap, ok := index.Snapshot(); ok {
			if err := s.memo.Set(ctx, key, snap); err != nil {
				log.Printf("index memo set failed: %v", err)
			}
		}
	}
	return index, nil
}

func (s *DocumentService) store(sessionID string) rag.VectorStore {
	if s.stores == nil {
		return nil
	}
	return s.stores(sessionID)
}

func kindForSource(source string) string {
	switch source {
	case model.SourceAudio:
		return model.SessionKindAudio
	case model.SourceInvoice:
		return model.SessionKindInvoice
	default:
		return model.SessionKindDocument
	}
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
