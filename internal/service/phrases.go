package service

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadPhrases reads one thank-you phrase per line, skipping blank lines.
func LoadPhrases(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open phrases: %w", err)
	}
	defer f.Close()
	return ParsePhrases(f)
}

func ParsePhrases(r io.Reader) ([]string, error) {
	var phrases []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			phrases = append(phrases, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read phrases: %w", err)
	}
	if len(phrases) == 0 {
		return nil, errors.New("no phrases found")
	}
	return phrases, nil
}
