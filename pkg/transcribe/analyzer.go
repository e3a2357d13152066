package transcribe

import (
	"strings"
	"sync"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Token is a single analyzed unit of Japanese text.
type Token struct {
	Surface    string // The text as it appears (e.g. "行っ")
	BaseForm   string // The dictionary form (e.g. "行く")
	Reading    string // The pronunciation in katakana, empty when unknown
	PrimaryPOS string
}

// Analyzer segments Japanese phrases with kagome.
type Analyzer struct {
	t *tokenizer.Tokenizer
}

// NewAnalyzer creates a new tokenizer instance. Loading the IPA dictionary is
// slow, so callers should share one Analyzer.
func NewAnalyzer() (*Analyzer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Analyzer{t: t}, nil
}

// Analyze breaks text into tokens with readings and base forms.
func (a *Analyzer) Analyze(text string) []Token {
	var result []Token
	for _, token := range a.t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY || strings.TrimSpace(token.Surface) == "" {
			continue
		}

		// IPA features: 0 POS, 6 base form, 7 reading, 8 pronunciation.
		features := token.Features()

		base := token.Surface
		if len(features) > 6 && features[6] != "*" {
			base = features[6]
		}
		reading := ""
		if len(features) > 7 && features[7] != "*" {
			reading = features[7]
		}
		primaryPOS := ""
		if len(features) > 0 {
			primaryPOS = features[0]
		}

		result = append(result, Token{
			Surface:    token.Surface,
			BaseForm:   base,
			Reading:    reading,
			PrimaryPOS: primaryPOS,
		})
	}
	return result
}

// lazyAnalyzer defers dictionary loading until the first Japanese phrase.
type lazyAnalyzer struct {
	once sync.Once
	a    *Analyzer
	err  error
}

func (l *lazyAnalyzer) get() (*Analyzer, error) {
	l.once.Do(func() { l.a, l.err = NewAnalyzer() })
	return l.a, l.err
}

// isJapanese reports whether s contains kana or kanji.
func isJapanese(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) {
			return true
		}
	}
	return false
}
