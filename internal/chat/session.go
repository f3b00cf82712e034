package chat

import (
	"context"
	"fmt"
	"unicode/utf8"

	"chatpdf/internal/llm"
)

// maxContextChars bounds how much document text is injected as the
// initial context message.
const maxContextChars = 10000

const systemPrompt = `You are a specialized PDF document assistant. Your role is STRICTLY LIMITED to answering questions about the provided PDF document only.

IMPORTANT RULES:
1. ONLY answer questions that can be answered using information from the provided PDF document
2. If a question is about topics NOT covered in the PDF, politely decline and redirect the user back to the document content
3. If asked about unrelated topics (like movies, games, general knowledge, etc.), respond with: "I can only answer questions about the content of the provided PDF document. Please ask me something related to the document."
4. Always base your answers on the specific content, data, and information present in the PDF
5. If you're unsure whether information is in the document, clearly state your uncertainty
6. You can help clarify, summarize, or explain concepts that are mentioned in the PDF document

Remember: You are a document-specific assistant, not a general knowledge AI.`

// Session holds one conversation grounded in a document. The full
// transcript grows without bound; only the most recent maxHistory entries
// are sent to the completion service per turn. A Session is owned by a
// single caller; hosts juggling several sessions must isolate them.
type Session struct {
	completer  llm.Completer
	maxHistory int
	messages   []llm.Message
}

// NewSession creates an unseeded session. maxHistory <= 0 falls back to 20.
func NewSession(completer llm.Completer, maxHistory int) *Session {
	if maxHistory <= 0 {
		maxHistory = 20
	}
	return &Session{completer: completer, maxHistory: maxHistory}
}

// Seed resets the transcript to the system prompt plus a truncated
// document-context message. Calling it again discards prior history.
func (s *Session) Seed(documentText string) {
	excerpt := documentText
	if len(excerpt) > maxContextChars {
		// Back off to a rune boundary so the cut never splits a
		// multi-byte character.
		cut := maxContextChars
		for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
			cut--
		}
		excerpt = excerpt[:cut] + "..."
	}
	s.messages = []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: "Document content:\n" + excerpt},
	}
}

// Ask appends the question, sends the recent history window to the model,
// and appends the answer. On failure the question stays committed and the
// error propagates without retry.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	s.messages = append(s.messages, llm.Message{Role: llm.RoleUser, Content: question})

	answer, err := s.completer.Complete(ctx, s.window())
	if err != nil {
		return "", fmt.Errorf("chat turn: %w", err)
	}

	s.messages = append(s.messages, llm.Message{Role: llm.RoleAssistant, Content: answer})
	return answer, nil
}

// Transcript returns a copy of the full message history.
func (s *Session) Transcript() []llm.Message {
	out := make([]llm.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// window is the suffix of the transcript actually sent to the model.
func (s *Session) window() []llm.Message {
	if len(s.messages) <= s.maxHistory {
		return s.messages
	}
	return s.messages[len(s.messages)-s.maxHistory:]
}
