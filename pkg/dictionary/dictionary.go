package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Dictionary maps lower-cased English words to their ARPAbet pronunciations,
// as published in the CMU Pronouncing Dictionary.
type Dictionary struct {
	// index is read concurrently by request handlers; Add may mutate it.
	mu    sync.RWMutex
	index map[string][][]string
}

// New returns an empty dictionary.
func New() *Dictionary {
	return &Dictionary{index: make(map[string][][]string)}
}

// Parse reads CMU dict formatted lines:
//
//	hello HH AH0 L OW1
//	hello(2) HH EH0 L OW1
//
// Lines starting with ";;;" and trailing "#" comments are ignored. Alternate
// pronunciations keep their file order.
func Parse(r io.Reader) (*Dictionary, error) {
	d := New()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.Index(text, "#"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" || strings.HasPrefix(text, ";;;") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected word and phones, got %q", line, text)
		}
		word := fields[0]
		if i := strings.IndexByte(word, '('); i > 0 && strings.HasSuffix(word, ")") {
			word = word[:i]
		}
		d.Add(word, fields[1:])
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	return d, nil
}

// Load parses the dictionary file at path.
func Load(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Add appends a pronunciation for word.
func (d *Dictionary) Add(word string, phones []string) {
	key := strings.ToLower(word)
	d.mu.Lock()
	d.index[key] = append(d.index[key], append([]string(nil), phones...))
	d.mu.Unlock()
}

// Lookup returns the primary pronunciation of word.
func (d *Dictionary) Lookup(word string) ([]string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	prons, ok := d.index[strings.ToLower(word)]
	if !ok || len(prons) == 0 {
		return nil, false
	}
	return prons[0], true
}

// Pronunciations returns every known pronunciation of word.
func (d *Dictionary) Pronunciations(word string) [][]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.index[strings.ToLower(word)]
}

// Len is the number of distinct words.
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.index)
}
