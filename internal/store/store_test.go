package store

import (
	"errors"
	"testing"

	"chatpdf/internal/common"
)

// setupTestStore creates an in-memory SQLite database for testing
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	return s
}

func TestCreateAndGetSession(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	sess := Session{
		ID:           "abc-123",
		Filename:     "report.pdf",
		FilePath:     "/tmp/abc-123.pdf",
		DocumentText: "Page 1:\nhello\n",
	}
	if err := s.CreateSession(sess); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	got, err := s.GetSession("abc-123")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.Filename != sess.Filename {
		t.Errorf("Filename = %q, want %q", got.Filename, sess.Filename)
	}
	if got.DocumentText != sess.DocumentText {
		t.Errorf("DocumentText = %q, want %q", got.DocumentText, sess.DocumentText)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not populated")
	}
}

func TestGetSessionNotFound(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	_, err := s.GetSession("missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetSession() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	if err := s.CreateSession(Session{ID: "s1", Filename: "a.pdf", FilePath: "/tmp/a.pdf"}); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if err := s.AppendMessage("s1", "user", "q"); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}

	if err := s.DeleteSession("s1"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := s.GetSession("s1"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("session still present after delete: %v", err)
	}
	msgs, err := s.ListMessages("s1")
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("messages survived session delete: %d left", len(msgs))
	}

	if err := s.DeleteSession("s1"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("double delete error = %v, want ErrNotFound", err)
	}
}

func TestMessagesKeepInsertionOrder(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	if err := s.CreateSession(Session{ID: "s1", Filename: "a.pdf", FilePath: "/tmp/a.pdf"}); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	pairs := []Message{
		{Role: "user", Content: "q1"},
		{Role: "assistant", Content: "a1"},
		{Role: "user", Content: "q2"},
		{Role: "assistant", Content: "a2"},
	}
	for _, m := range pairs {
		if err := s.AppendMessage("s1", m.Role, m.Content); err != nil {
			t.Fatalf("AppendMessage(%q) error = %v", m.Content, err)
		}
	}

	got, err := s.ListMessages("s1")
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(got) != len(pairs) {
		t.Fatalf("got %d messages, want %d", len(got), len(pairs))
	}
	for i := range pairs {
		if got[i] != pairs[i] {
			t.Errorf("message[%d] = %+v, want %+v", i, got[i], pairs[i])
		}
	}
}

func TestCountSessions(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	for _, id := range []string{"s1", "s2", "s3"} {
		if err := s.CreateSession(Session{ID: id, Filename: id + ".pdf", FilePath: "/tmp/" + id}); err != nil {
			t.Fatalf("CreateSession(%s) error = %v", id, err)
		}
	}

	n, err := s.CountSessions()
	if err != nil {
		t.Fatalf("CountSessions() error = %v", err)
	}
	if n != 3 {
		t.Errorf("CountSessions() = %d, want 3", n)
	}
}
