package botly

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry in a session transcript.
type Turn struct {
	Role    Role
	Content string
}

// Session binds a Bot to a conversation transcript and a working directory
// for uploaded documents. Each session gets a random hex identifier used to
// name its persisted files.
type Session struct {
	ID  string
	bot *Bot
	dir string

	mu    sync.Mutex
	turns []Turn
}

// NewSession creates a session around bot. Uploaded documents are persisted
// under dir, which is created if missing.
func NewSession(bot *Bot, dir string) (*Session, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	id := uuid.New()
	return &Session{
		ID:  hex.EncodeToString(id[:]),
		bot: bot,
		dir: dir,
	}, nil
}

// SaveDocument persists the uploaded document under the session directory
// as <id>.pdf and returns its path.
func (s *Session) SaveDocument(r io.Reader) (string, error) {
	path := filepath.Join(s.dir, s.ID+".pdf")
	f, err := os.Create(path)
	if err != nil {
		return "", newError(ErrorKindIngest, "failed to persist document", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", newError(ErrorKindIngest, "failed to persist document", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", newError(ErrorKindIngest, "failed to persist document", err)
	}
	return path, nil
}

// Attach persists the uploaded document and ingests it into the bot.
func (s *Session) Attach(ctx context.Context, r io.Reader) error {
	path, err := s.SaveDocument(r)
	if err != nil {
		return err
	}
	return s.bot.AttachDocument(ctx, path)
}

// AttachFile ingests an existing file without copying it.
func (s *Session) AttachFile(ctx context.Context, path string) error {
	return s.bot.AttachDocument(ctx, path)
}

// Send records the user turn, obtains the bot's reply and records it as the
// assistant turn. It never returns an error.
func (s *Session) Send(ctx context.Context, query string) string {
	reply := s.bot.Reply(ctx, query)

	s.mu.Lock()
	s.turns = append(s.turns,
		Turn{Role: RoleUser, Content: query},
		Turn{Role: RoleAssistant, Content: reply},
	)
	s.mu.Unlock()

	return reply
}

// History returns a copy of the transcript in order.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// HasDocument reports whether the session's bot has an attached document.
func (s *Session) HasDocument() bool {
	return s.bot.HasDocument()
}
