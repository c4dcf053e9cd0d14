package botly

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, chat *mockChat) *Session {
	t.Helper()
	bot := newTestBot(t, chat, &mockEmbedder{})
	session, err := NewSession(bot, filepath.Join(t.TempDir(), "documents"))
	require.NoError(t, err)
	return session
}

func TestNewSessionCreatesDirectoryAndID(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "documents")
	session := func() *Session {
		bot := newTestBot(t, &mockChat{}, &mockEmbedder{})
		s, err := NewSession(bot, dir)
		require.NoError(t, err)
		return s
	}()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.Len(t, session.ID, 32, "session id should be a 32-char hex string")
	assert.NotContains(t, session.ID, "-")
}

func TestSessionIDsAreUnique(t *testing.T) {
	bot := newTestBot(t, &mockChat{}, &mockEmbedder{})
	dir := t.TempDir()

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		s, err := NewSession(bot, dir)
		require.NoError(t, err)
		assert.False(t, seen[s.ID], "duplicate session id %s", s.ID)
		seen[s.ID] = true
	}
}

func TestSaveDocumentPersistsUpload(t *testing.T) {
	session := newTestSession(t, &mockChat{})

	path, err := session.SaveDocument(strings.NewReader("uploaded bytes"))
	require.NoError(t, err)
	assert.Equal(t, session.ID+".pdf", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "uploaded bytes", string(data))
}

func TestSessionAttachRejectsInvalidPDF(t *testing.T) {
	session := newTestSession(t, &mockChat{})

	err := session.Attach(context.Background(), strings.NewReader("not a real pdf"))
	require.Error(t, err)
	assert.Equal(t, ErrorKindIngest, KindOf(err))
	assert.False(t, session.HasDocument())
}

func TestSessionSendRecordsTranscript(t *testing.T) {
	chat := &mockChat{reply: "the answer"}
	session := newTestSession(t, chat)

	reply := session.Send(context.Background(), "a question")
	assert.Equal(t, "the answer", reply)

	history := session.History()
	require.Len(t, history, 2)
	assert.Equal(t, Turn{Role: RoleUser, Content: "a question"}, history[0])
	assert.Equal(t, Turn{Role: RoleAssistant, Content: "the answer"}, history[1])
}

func TestSessionSendRecordsRefusals(t *testing.T) {
	session := newTestSession(t, &mockChat{})

	reply := session.Send(context.Background(), "summarize the @pdf")
	assert.Equal(t, RefusalReply, reply)

	history := session.History()
	require.Len(t, history, 2)
	assert.Equal(t, RefusalReply, history[1].Content)
}

func TestSessionHistoryReturnsCopy(t *testing.T) {
	chat := &mockChat{reply: "ok"}
	session := newTestSession(t, chat)
	session.Send(context.Background(), "one")

	history := session.History()
	history[0].Content = "mutated"

	fresh := session.History()
	assert.Equal(t, "one", fresh[0].Content)
}

func TestSessionAttachFileEnablesRAG(t *testing.T) {
	chat := &mockChat{reply: "grounded answer"}
	session := newTestSession(t, chat)

	doc := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(doc, []byte("Quarterly revenue grew ten percent."), 0o644))
	require.NoError(t, session.AttachFile(context.Background(), doc))
	require.True(t, session.HasDocument())

	reply := session.Send(context.Background(), "what does the @pdf report?")
	assert.Equal(t, "grounded answer", reply)
}
