// Package sessions manages legal consultation sessions: conversation
// bookkeeping over the legal pipeline with JSON persistence for audit
// export.
package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linksaudi/market-intelligence/pkg/types"
)

// Responder is the slice of the legal pipeline the session manager needs.
type Responder interface {
	GenerateResponse(ctx context.Context, query string, filters types.SearchFilters, includeCitations bool) *types.RAGResponse
}

// Entry is one question/answer exchange within a session.
type Entry struct {
	Question  string              `json:"question"`
	Response  string              `json:"response"`
	Citations []types.Citation    `json:"citations,omitempty"`
	Degraded  bool                `json:"degraded"`
	Timestamp time.Time           `json:"timestamp"`
	Filters   types.SearchFilters `json:"filters"`
}

// Session is one legal consultation conversation.
type Session struct {
	ID            string    `json:"session_id"`
	UserID        string    `json:"user_id,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	EndedAt       time.Time `json:"ended_at,omitempty"`
	Entries       []Entry   `json:"entries"`
	QuestionCount int       `json:"question_count"`
	DegradedCount int       `json:"degraded_count"`
}

// Summary is the read-side view of a session.
type Summary struct {
	ID            string        `json:"session_id"`
	UserID        string        `json:"user_id,omitempty"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
	QuestionCount int           `json:"question_count"`
	DegradedCount int           `json:"degraded_count"`
	Topics        []string      `json:"topics"`
}

// Manager coordinates sessions over the legal pipeline and persists them
// as JSON files under a sessions directory.
type Manager struct {
	responder Responder
	directory string
	active    map[string]*Session
	logger    *slog.Logger
	mutex     sync.Mutex
}

// NewManager creates a session manager persisting under directory.
func NewManager(responder Responder, directory string) (*Manager, error) {
	if directory == "" {
		directory = "legal_sessions"
	}
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, types.NewPipelineError(types.ErrKindConfiguration, "sessions.NewManager",
			fmt.Errorf("creating sessions directory: %w", err))
	}
	return &Manager{
		responder: responder,
		directory: directory,
		active:    make(map[string]*Session),
		logger:    slog.Default().With("component", "legal-sessions"),
	}, nil
}

// WelcomeMessage is shown when a session starts.
const WelcomeMessage = "Welcome to the LinkSaudi legal compliance assistant. Ask a question about Saudi Arabian " +
	"law or regulations and I will answer from our legal document database. This assistant provides general " +
	"information only and does not constitute legal advice."

// StartSession opens a new session and returns its id.
func (m *Manager) StartSession(userID string) string {
	session := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartedAt: time.Now(),
	}

	m.mutex.Lock()
	m.active[session.ID] = session
	m.mutex.Unlock()

	m.logger.Info("session started", "session_id", session.ID, "user_id", userID)
	return session.ID
}

// Ask runs one legal question through the pipeline within a session and
// records the exchange. The session is persisted after every exchange so
// a crash loses at most nothing.
func (m *Manager) Ask(ctx context.Context, sessionID, question string, filters types.SearchFilters) (*types.RAGResponse, error) {
	m.mutex.Lock()
	session, ok := m.active[sessionID]
	m.mutex.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown session %s", sessionID)
	}

	resp := m.responder.GenerateResponse(ctx, question, filters, true)

	entry := Entry{
		Question:  question,
		Response:  resp.ResponseText,
		Citations: resp.Citations,
		Degraded:  resp.Degraded(),
		Timestamp: time.Now(),
		Filters:   filters,
	}

	m.mutex.Lock()
	session.Entries = append(session.Entries, entry)
	session.QuestionCount++
	if entry.Degraded {
		session.DegradedCount++
	}
	m.mutex.Unlock()

	if err := m.save(session); err != nil {
		m.logger.Warn("failed to persist session", "session_id", sessionID, "error", err)
	}
	return resp, nil
}

// EndSession closes a session, persists it, and returns the summary.
func (m *Manager) EndSession(sessionID string) (*Summary, error) {
	m.mutex.Lock()
	session, ok := m.active[sessionID]
	if ok {
		session.EndedAt = time.Now()
		delete(m.active, sessionID)
	}
	m.mutex.Unlock()

	if !ok {
		return nil, fmt.Errorf("unknown session %s", sessionID)
	}
	if err := m.save(session); err != nil {
		m.logger.Warn("failed to persist ended session", "session_id", sessionID, "error", err)
	}

	summary := summarize(session)
	m.logger.Info("session ended",
		"session_id", sessionID,
		"questions", summary.QuestionCount,
		"duration", summary.Duration,
	)
	return &summary, nil
}

// ListSessions returns summaries of all persisted sessions, newest first.
// userID filters when non-empty.
func (m *Manager) ListSessions(userID string) ([]Summary, error) {
	pattern := filepath.Join(m.directory, "session_*.json")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}

	var summaries []Summary
	for _, path := range paths {
		session, err := m.loadFile(path)
		if err != nil {
			m.logger.Warn("skipping unreadable session file", "path", path, "error", err)
			continue
		}
		if userID != "" && session.UserID != userID {
			continue
		}
		summaries = append(summaries, summarize(session))
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartedAt.After(summaries[j].StartedAt)
	})
	return summaries, nil
}

// LoadSession reopens a persisted session for continued conversation.
func (m *Manager) LoadSession(sessionID string) (*Session, error) {
	session, err := m.loadFile(m.path(sessionID))
	if err != nil {
		return nil, err
	}

	m.mutex.Lock()
	m.active[session.ID] = session
	m.mutex.Unlock()
	return session, nil
}

func (m *Manager) save(session *Session) error {
	m.mutex.Lock()
	data, err := json.MarshalIndent(session, "", "  ")
	m.mutex.Unlock()
	if err != nil {
		return err
	}
	// Write to a temp file and rename so a crash never leaves a
	// half-written session on disk.
	final := m.path(session.ID)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, final)
}

func (m *Manager) loadFile(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("parsing session file %s: %w", path, err)
	}
	return &session, nil
}

func (m *Manager) path(sessionID string) string {
	return filepath.Join(m.directory, "session_"+sessionID+".json")
}

func summarize(session *Session) Summary {
	end := session.EndedAt
	if end.IsZero() {
		end = time.Now()
	}

	var topics []string
	seen := make(map[string]struct{})
	for _, entry := range session.Entries {
		topic := firstWords(entry.Question, 6)
		if _, ok := seen[topic]; ok {
			continue
		}
		seen[topic] = struct{}{}
		topics = append(topics, topic)
	}

	return Summary{
		ID:            session.ID,
		UserID:        session.UserID,
		StartedAt:     session.StartedAt,
		Duration:      end.Sub(session.StartedAt),
		QuestionCount: session.QuestionCount,
		DegradedCount: session.DegradedCount,
		Topics:        topics,
	}
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
