package transcribe

import (
	"fmt"
	"os"
	"strings"
)

// LoadVocabulary reads a term list used to bias recognition, one term per
// line. Blank lines and lines starting with # are skipped; the remaining
// terms are joined into a single prompt string.
func LoadVocabulary(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read vocabulary file: %w", err)
	}
	var terms []string
	for _, line := range strings.Split(string(data), "\n") {
		term := strings.TrimSpace(line)
		if term == "" || strings.HasPrefix(term, "#") {
			continue
		}
		terms = append(terms, term)
	}
	return strings.Join(terms, ", "), nil
}
