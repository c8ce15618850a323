package sentiment

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

//go:embed afinn_da.txt
var danishLexicon string

// Lexicon maps normalized words and phrases to sentiment weights.
type Lexicon map[string]float64

// DefaultLexicon returns the built-in Danish lexicon.
func DefaultLexicon() (Lexicon, error) {
	return ParseLexicon(strings.NewReader(danishLexicon))
}

// LoadLexicon reads an AFINN-format file from disk.
func LoadLexicon(path string) (Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lexicon: %w", err)
	}
	defer f.Close()

	return ParseLexicon(f)
}

// ParseLexicon reads "term<TAB>weight" lines. Blank lines and lines starting
// with # are skipped. Terms are normalized the same way scored text is.
func ParseLexicon(r io.Reader) (Lexicon, error) {
	lex := make(Lexicon)

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.LastIndexByte(line, '\t')
		if idx <= 0 {
			return nil, fmt.Errorf("lexicon line %d: expected term<TAB>weight", lineNo)
		}

		weight, err := strconv.ParseFloat(strings.TrimSpace(line[idx+1:]), 64)
		if err != nil {
			return nil, fmt.Errorf("lexicon line %d: invalid weight: %w", lineNo, err)
		}

		tokens := tokenize(normalize(line[:idx]))
		if len(tokens) == 0 {
			return nil, fmt.Errorf("lexicon line %d: empty term", lineNo)
		}
		lex[strings.Join(tokens, " ")] = weight
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	if len(lex) == 0 {
		return nil, fmt.Errorf("lexicon is empty")
	}
	return lex, nil
}
