package app

import (
	"fmt"
	"log"
	"time"

	"askdocs/internal/model"
	"askdocs/internal/repository"
	"askdocs/internal/rag"
)

// DocumentRecorder persists sessions and their indexed segments so an index
// can be restored after a restart without calling the embedder again.
type DocumentRecorder interface {
	SaveSession(session *model.Session, doc *model.Document, snap rag.Snapshot) error
	LoadSession(id string, now time.Time) (*model.Session, *rag.Snapshot, error)
}

type SQLDocumentRecorder struct {
	sessions  *repository.SessionRepository
	documents *repository.DocumentRepository
}

func NewSQLDocumentRecorder(sessions *repository.SessionRepository, documents *repository.DocumentRepository) *SQLDocumentRecorder {
	return &SQLDocumentRecorder{sessions: sessions, documents: documents}
}

// SaveSession also prunes sessions that expired before this one was created.
func (r *SQLDocumentRecorder) SaveSession(session *model.Session, doc *model.Document, snap rag.Snapshot) error {
	if n, err := r.sessions.DeleteExpired(session.CreatedAt); err != nil {
		log.Printf("prune expired sessions failed: %v", err)
	} else if n > 0 {
		log.Printf("pruned %d expired sessions", n)
	}
	if err := r.sessions.Create(session); err != nil {
		return err
	}
	doc.SessionID = session.ID
	doc.SegmentCount = len(snap.Segments)
	return r.documents.CreateWithSegments(doc, SegmentsFromSnapshot(snap))
}

// LoadSession returns nil, nil, nil when the session is unknown or expired.
func (r *SQLDocumentRecorder) LoadSession(id string, now time.Time) (*model.Session, *rag.Snapshot, error) {
	session, err := r.sessions.GetActive(id, now)
	if err != nil || session == nil {
		return nil, nil, err
	}
	docs, err := r.documents.ListBySessionID(id)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]uint, len(docs))
	for i := range docs {
		ids[i] = docs[i].ID
	}
	segments, err := r.documents.ListSegments(ids)
	if err != nil {
		return nil, nil, err
	}
	if len(segments) == 0 {
		return nil, nil, fmt.Errorf("session %s has no stored segments", id)
	}
	snap := SnapshotFromSegments(segments)
	return session, &snap, nil
}

func SegmentsFromSnapshot(snap rag.Snapshot) []model.DocumentSegment {
	out := make([]model.DocumentSegment, len(snap.Segments))
	for i, seg := range snap.Segments {
		out[i] = model.DocumentSegment{
			Ordinal: seg.Ordinal,
			Offset:  seg.Offset,
			Content: seg.Text,
		}
		out[i].SetEmbedding(snap.Vectors[i])
		out[i].SetMetadata(seg.Metadata)
	}
	return out
}

func SnapshotFromSegments(segments []model.DocumentSegment) rag.Snapshot {
	snap := rag.Snapshot{
		Segments: make([]rag.Segment, len(segments)),
		Vectors:  make([][]float32, len(segments)),
	}
	for i := range segments {
		snap.Segments[i] = rag.Segment{
			Ordinal:  segments[i].Ordinal,
			Text:     segments[i].Content,
			Offset:   segments[i].Offset,
			Metadata: segments[i].MetadataMap(),
		}
		snap.Vectors[i] = segments[i].EmbeddingVector()
	}
	return snap
}
