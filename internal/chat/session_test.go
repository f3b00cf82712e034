package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"chatpdf/internal/llm"
)

type fakeCompleter struct {
	answer   string
	err      error
	payloads [][]llm.Message
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	snapshot := make([]llm.Message, len(messages))
	copy(snapshot, messages)
	f.payloads = append(f.payloads, snapshot)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func TestSeedTranscript(t *testing.T) {
	s := NewSession(&fakeCompleter{}, 20)
	s.Seed("document body")

	transcript := s.Transcript()
	if len(transcript) != 2 {
		t.Fatalf("transcript length = %d, want 2", len(transcript))
	}
	if transcript[0].Role != llm.RoleSystem {
		t.Errorf("first message role = %q, want system", transcript[0].Role)
	}
	if transcript[1].Role != llm.RoleUser {
		t.Errorf("second message role = %q, want user", transcript[1].Role)
	}
	if !strings.Contains(transcript[1].Content, "document body") {
		t.Errorf("context message missing document text: %q", transcript[1].Content)
	}
}

func TestSeedTruncatesLongDocument(t *testing.T) {
	s := NewSession(&fakeCompleter{}, 20)
	doc := strings.Repeat("x", 15000)
	s.Seed(doc)

	content := s.Transcript()[1].Content
	if !strings.Contains(content, doc[:10000]) {
		t.Error("context message missing 10000-char prefix")
	}
	if strings.Contains(content, strings.Repeat("x", 10001)) {
		t.Error("context message carries more than 10000 document chars")
	}
	if !strings.HasSuffix(content, "...") {
		t.Error("truncated context missing truncation marker")
	}
}

func TestSeedTruncationKeepsRunesIntact(t *testing.T) {
	s := NewSession(&fakeCompleter{}, 20)
	// Three-byte runes that do not divide the byte limit evenly, so a
	// naive byte slice would land inside a rune.
	s.Seed(strings.Repeat("€", 4000))

	content := s.Transcript()[1].Content
	if !utf8.ValidString(content) {
		t.Fatal("context message is not valid UTF-8")
	}
	if !strings.HasSuffix(content, "...") {
		t.Error("truncated context missing truncation marker")
	}
	if got, want := strings.Count(content, "€"), 3333; got != want {
		t.Errorf("runes kept = %d, want %d", got, want)
	}
}

func TestSeedShortDocumentNotMarked(t *testing.T) {
	s := NewSession(&fakeCompleter{}, 20)
	s.Seed("short")

	if content := s.Transcript()[1].Content; strings.HasSuffix(content, "...") {
		t.Errorf("short document got a truncation marker: %q", content)
	}
}

func TestSeedReplacesTranscript(t *testing.T) {
	s := NewSession(&fakeCompleter{answer: "a"}, 20)
	s.Seed("first")
	if _, err := s.Ask(context.Background(), "q1"); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	s.Seed("second")
	transcript := s.Transcript()
	if len(transcript) != 2 {
		t.Fatalf("transcript length after reseed = %d, want 2", len(transcript))
	}
	if !strings.Contains(transcript[1].Content, "second") {
		t.Errorf("reseeded context = %q, want second document", transcript[1].Content)
	}
}

func TestAskGrowsTranscriptByTwo(t *testing.T) {
	s := NewSession(&fakeCompleter{answer: "an answer"}, 20)
	s.Seed("doc")

	for i := 1; i <= 3; i++ {
		answer, err := s.Ask(context.Background(), fmt.Sprintf("q%d", i))
		if err != nil {
			t.Fatalf("Ask() error = %v", err)
		}
		if answer != "an answer" {
			t.Errorf("answer = %q, want %q", answer, "an answer")
		}
		if got, want := len(s.Transcript()), 2+2*i; got != want {
			t.Errorf("transcript length after %d asks = %d, want %d", i, got, want)
		}
	}

	transcript := s.Transcript()
	last := transcript[len(transcript)-1]
	if last.Role != llm.RoleAssistant {
		t.Errorf("last transcript role = %q, want assistant", last.Role)
	}
}

func TestAskSendsBoundedWindow(t *testing.T) {
	fc := &fakeCompleter{answer: "ok"}
	s := NewSession(fc, 20)
	s.Seed("doc")

	for i := 1; i <= 25; i++ {
		if _, err := s.Ask(context.Background(), fmt.Sprintf("q%d", i)); err != nil {
			t.Fatalf("Ask(%d) error = %v", i, err)
		}
	}

	if got := len(s.Transcript()); got != 52 {
		t.Errorf("full transcript length = %d, want 52", got)
	}

	last := fc.payloads[len(fc.payloads)-1]
	if len(last) != 20 {
		t.Fatalf("payload length = %d, want exactly 20", len(last))
	}
	// The window is the transcript suffix: it must end with the question
	// just asked.
	if got := last[len(last)-1].Content; got != "q25" {
		t.Errorf("last payload entry = %q, want q25", got)
	}
	transcript := s.Transcript()
	// Assistant answer is appended after the call, so compare against the
	// transcript as it stood when the payload was built.
	pending := transcript[:len(transcript)-1]
	for i, msg := range last {
		if want := pending[len(pending)-20+i]; msg != want {
			t.Errorf("payload[%d] = %+v, want transcript suffix entry %+v", i, msg, want)
		}
	}
}

func TestAskErrorKeepsUserEntry(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("quota exceeded")}
	s := NewSession(fc, 20)
	s.Seed("doc")

	_, err := s.Ask(context.Background(), "q1")
	if err == nil {
		t.Fatal("Ask() succeeded, want propagated completer error")
	}

	transcript := s.Transcript()
	if got := len(transcript); got != 3 {
		t.Fatalf("transcript length after failed turn = %d, want 3", got)
	}
	last := transcript[len(transcript)-1]
	if last.Role != llm.RoleUser || last.Content != "q1" {
		t.Errorf("last entry = %+v, want committed user question", last)
	}
}

func TestRunInteractive(t *testing.T) {
	fc := &fakeCompleter{answer: "42"}
	s := NewSession(fc, 20)
	s.Seed("doc")

	in := strings.NewReader("what is the answer\n\n   \nQUIT\n")
	var out strings.Builder
	RunInteractive(context.Background(), s, in, &out)

	output := out.String()
	if !strings.Contains(output, "Bot: 42") {
		t.Errorf("output missing bot answer:\n%s", output)
	}
	if !strings.Contains(output, "Goodbye!") {
		t.Errorf("output missing farewell:\n%s", output)
	}
	if len(fc.payloads) != 1 {
		t.Errorf("completer called %d times, want 1 (blank lines ignored)", len(fc.payloads))
	}
}

func TestRunInteractiveTurnFailureContinues(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("network down")}
	s := NewSession(fc, 20)
	s.Seed("doc")

	in := strings.NewReader("q1\nexit\n")
	var out strings.Builder
	RunInteractive(context.Background(), s, in, &out)

	output := out.String()
	if !strings.Contains(output, "Error:") {
		t.Errorf("output missing printed turn error:\n%s", output)
	}
	if !strings.Contains(output, "Goodbye!") {
		t.Errorf("loop did not reach the exit command:\n%s", output)
	}
}

func TestRunInteractiveEOF(t *testing.T) {
	s := NewSession(&fakeCompleter{}, 20)
	s.Seed("doc")

	var out strings.Builder
	RunInteractive(context.Background(), s, strings.NewReader(""), &out)

	if !strings.Contains(out.String(), "Goodbye!") {
		t.Errorf("EOF did not produce farewell:\n%s", out.String())
	}
}

func TestRunInteractiveCancelledWhileWaitingForInput(t *testing.T) {
	fc := &fakeCompleter{answer: "42"}
	s := NewSession(fc, 20)
	s.Seed("doc")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A pipe with no writer: reads block forever, so only cancellation can
	// end the loop.
	pr, pw := io.Pipe()
	defer pw.Close()

	done := make(chan string, 1)
	go func() {
		var out strings.Builder
		RunInteractive(ctx, s, pr, &out)
		done <- out.String()
	}()

	select {
	case output := <-done:
		if !strings.Contains(output, "Goodbye!") {
			t.Errorf("output missing farewell:\n%s", output)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not return after context cancellation")
	}
	if len(fc.payloads) != 0 {
		t.Errorf("completer called %d times, want 0", len(fc.payloads))
	}
}
