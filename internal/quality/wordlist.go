package quality

import (
	"bufio"
	"log/slog"
	"os"
	"strings"
)

// Fallback locations for the reference word list when WORDLIST_PATH is unset.
var systemWordlists = []string{
	"/usr/share/dict/words",
	"/usr/dict/words",
}

// loadWordList reads a newline-delimited word corpus into a lowercase set.
// Loading is best-effort: any failure degrades to an empty set so the
// dictionary factor is dropped from scoring instead of surfacing an error.
func loadWordList(path string) map[string]struct{} {
	candidates := systemWordlists
	if path != "" {
		candidates = []string{path}
	}

	for _, candidate := range candidates {
		words, err := readWords(candidate)
		if err != nil {
			continue
		}
		slog.Debug("word list loaded", "path", candidate, "words", len(words))
		return words
	}

	slog.Warn("no word list available, dictionary scoring disabled")
	return map[string]struct{}{}
}

func readWords(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	words := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word != "" {
			words[word] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}
