package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// RunInteractive drives a line-oriented chat loop over the session.
// "exit", "quit", and "q" (any case) end the loop; blank lines are
// re-prompted; a failed turn is printed and the loop continues. Context
// cancellation or EOF ends the loop with a farewell rather than an error.
func RunInteractive(ctx context.Context, s *Session, in io.Reader, out io.Writer) {
	fmt.Fprintln(out, "ChatPDF is ready! Type your question or 'exit' to quit.")

	// Read lines on their own goroutine so cancellation is honored even
	// while the reader is blocked waiting for input. The goroutine ends
	// with the process when the loop returns mid-read.
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Fprint(out, "\nYou: ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nGoodbye!")
			return
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
			line = l
		}

		question := strings.TrimSpace(line)
		if question == "" {
			continue
		}
		switch strings.ToLower(question) {
		case "exit", "quit", "q":
			fmt.Fprintln(out, "Goodbye!")
			return
		}

		answer, err := s.Ask(ctx, question)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "Bot: %s\n", answer)
	}
}
