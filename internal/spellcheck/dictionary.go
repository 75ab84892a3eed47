package spellcheck

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadDictionary reads a dictionary asset: one lowercase word per line,
// blank lines and '#' comments skipped. Order is preserved because it
// defines the tie-break between equally distant entries.
func LoadDictionary(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary %s: %w", path, err)
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		words = append(words, strings.ToLower(word))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary %s: %w", path, err)
	}

	return words, nil
}
