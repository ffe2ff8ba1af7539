package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"askdocs/internal/captions"
	"askdocs/internal/model"
	"askdocs/internal/rag"
	"askdocs/internal/tutor"
)

// TurnPublisher hands tutor turns to the async persistence queue.
type TurnPublisher interface {
	Publish(ctx context.Context, turn model.TutorTurn) error
}

type RecordStore interface {
	Create(record *model.SessionRecord) error
}

// TutorState is the tutor half of a Session.
type TutorState struct {
	Language   string
	VideoURL   string
	Materials  tutor.Materials
	Chat       *rag.ChatSession
	Summarised bool
}

type TutorService struct {
	captions  captions.Source
	tutor     *tutor.Service
	sessions  *SessionStore
	publisher TurnPublisher
	records   RecordStore
	dir       string
	maxChars  int
}

func NewTutorService(
	source captions.Source,
	tutorSvc *tutor.Service,
	sessions *SessionStore,
	publisher TurnPublisher,
	records RecordStore,
	dir string,
	maxChars int,
) *TutorService {
	return &TutorService{
		captions:  source,
		tutor:     tutorSvc,
		sessions:  sessions,
		publisher: publisher,
		records:   records,
		dir:       dir,
		maxChars:  maxChars,
	}
}

type StartTutorInput struct {
	VideoURL    string
	Language    string
	CaptionCode string
}

type StartTutorResult struct {
	SessionID     string          `json:"session_id"`
	SessionToken  string          `json:"session_token"`
	CaptionCode   string          `json:"caption_code"`
	Words         int             `json:"words"`
	OriginalWords int             `json:"original_words"`
	Summarised    bool            `json:"summarised"`
	Materials     tutor.Materials `json:"materials"`
	Greeting      string          `json:"greeting"`
}

func (s *TutorService) Languages(ctx context.Context, videoURL string) ([]captions.Language, error) {
	if _, err := captions.ExtractVideoID(videoURL); err != nil {
		return nil, err
	}
	return s.captions.ListLanguages(ctx, videoURL)
}

// Start fetches captions, prepares study materials and opens the tutor chat.
// Without a caption code the first listed track is used.
func (s *TutorService) Start(ctx context.Context, input StartTutorInput) (*StartTutorResult, error) {
	language := strings.TrimSpace(input.Language)
	if language == "" {
		return nil, fmt.Errorf("language is empty: %w", rag.ErrInvalidInput)
	}
	if _, err := captions.ExtractVideoID(input.VideoURL); err != nil {
		return nil, err
	}

	code := strings.TrimSpace(input.CaptionCode)
	if code == "" {
		langs, err := s.captions.ListLanguages(ctx, input.VideoURL)
		if err != nil {
			return nil, err
		}
		if len(langs) == 0 {
			return nil, captions.ErrNoCaptions
		}
		code = langs[0].Code
	}

	raw, err := s.captions.Fetch(ctx, input.VideoURL, code)
	if err != nil {
		return nil, err
	}
	trimmed, words, originalWords := captions.Trim(raw, s.maxChars)
	transcript, summarised, err := s.tutor.PrepareTranscript(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	materials, err := s.tutor.Materials(ctx, transcript, language)
	if err != nil {
		return nil, err
	}

	sess := s.sessions.Create(model.SessionKindTutor, language)
	state := &TutorState{
		Language:   language,
		VideoURL:   input.VideoURL,
		Materials:  *materials,
		Summarised: summarised,
	}
	state.Chat = s.tutor.NewChat(transcript, language, s.observer(sess.ID))
	sess.Tutor = state

	greeting, err := state.Chat.Send(ctx, tutor.Greeting(language))
	if err != nil {
		s.sessions.Delete(sess.ID)
		return nil, err
	}
	token, err := s.sessions.Issue(sess)
	if err != nil {
		s.sessions.Delete(sess.ID)
		return nil, fmt.Errorf("issue session token failed: %w", err)
	}
	return &StartTutorResult{
		SessionID:     sess.ID,
		SessionToken:  token,
		CaptionCode:   code,
		Words:         words,
		OriginalWords: originalWords,
		Summarised:    summarised,
		Materials:     *materials,
		Greeting:      greeting,
	}, nil
}

// Send forwards one student message. A failed turn leaves history untouched.
func (s *TutorService) Send(ctx context.Context, sessionID, content string) (string, error) {
	state, err := s.state(sessionID)
	if err != nil {
		return "", err
	}
	return state.Chat.Send(ctx, content)
}

// Finish summarises the chat, writes the session record and closes the session.
func (s *TutorService) Finish(ctx context.Context, sessionID string) (string, error) {
	state, err := s.state(sessionID)
	if err != nil {
		return "", err
	}
	summary, err := s.tutor.SummariseChat(ctx, state.Language, state.Chat.Exchanges())
	if err != nil {
		return "", err
	}

	record := &tutor.Record{
		Language:    state.Language,
		VideoURL:    state.VideoURL,
		Materials:   state.Materials,
		ChatSummary: summary,
		CreatedAt:   time.Now(),
	}
	path, err := tutor.WriteRecord(s.dir, record)
	if err != nil {
		return "", err
	}
	if s.records != nil {
		if err := s.records.Create(&model.SessionRecord{
			SessionID: sessionID,
			Language:  state.Language,
			VideoURL:  state.VideoURL,
			Path:      path,
		}); err != nil {
			log.Printf("store session record %s failed: %v", sessionID, err)
		}
	}
	s.sessions.Delete(sessionID)
	return path, nil
}

func (s *TutorService) state(sessionID string) (*TutorState, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Tutor == nil {
		return nil, ErrWrongSessionKind
	}
	return sess.Tutor, nil
}

func (s *TutorService) observer(sessionID string) rag.TurnObserver {
	if s.publisher == nil {
		return nil
	}
	return func(ctx context.Context, ex rag.Exchange) {
		now := time.Now()
		for _, turn := range []model.TutorTurn{
			{SessionID: sessionID, Role: string(rag.RoleUser), Content: ex.Question, CreatedAt: now},
			{SessionID: sessionID, Role: string(rag.RoleModel), Content: ex.Reply, CreatedAt: now},
		} {
			if err := s.publisher.Publish(ctx, turn); err != nil {
				log.Printf("publish tutor turn for %s failed: %v", sessionID, err)
			}
		}
	}
}
