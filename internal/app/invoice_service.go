package app

import (
	"context"
	"fmt"
	"strings"

	"askdocs/internal/invoice"
	"askdocs/internal/model"
	"askdocs/internal/rag"
)

type InvoiceService struct {
	extractor *invoice.Extractor
	embedder  rag.Embedder
	gen       rag.Generator
	sessions  *SessionStore
}

func NewInvoiceService(extractor *invoice.Extractor, embedder rag.Embedder, gen rag.Generator, sessions *SessionStore) *InvoiceService {
	return &InvoiceService{
		extractor: extractor,
		embedder:  embedder,
		gen:       gen,
		sessions:  sessions,
	}
}

type InvoiceResult struct {
	SessionID    string                `json:"session_id"`
	SessionToken string                `json:"session_token"`
	Transactions []invoice.Transaction `json:"transactions"`
	Summary      invoice.Summary       `json:"summary"`
}

// Process extracts categorized transactions from invoice text and opens a
// session for questions over them.
func (s *InvoiceService) Process(ctx context.Context, name, text string) (*InvoiceResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("invoice text is empty: %w", rag.ErrInvalidInput)
	}
	transactions, err := s.extractor.Extract(ctx, text)
	if err != nil {
		return nil, err
	}
	res := &InvoiceResult{
		Transactions: transactions,
		Summary:      invoice.Summarize(transactions),
	}
	if len(transactions) == 0 {
		return res, nil
	}

	pipeline, err := invoice.NewQA(ctx, s.embedder, s.gen, transactions)
	if err != nil {
		return nil, err
	}
	sess := s.sessions.Create(model.SessionKindInvoice, name)
	sess.Pipeline = pipeline
	token, err := s.sessions.Issue(sess)
	if err != nil {
		s.sessions.Delete(sess.ID)
		return nil, fmt.Errorf("issue session token failed: %w", err)
	}
	res.SessionID = sess.ID
	res.SessionToken = token
	return res, nil
}
