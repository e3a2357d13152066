package transcribe

import (
	"context"
	"strings"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/LiableFish/English-Phrasebook-App/pkg/dictionary"
)

// Placeholder is served in place of a transcription for words without a phrase.
const Placeholder = "Phrase has not be added yet"

// UnknownMark is appended to words missing from the pronouncing dictionary.
const UnknownMark = "*"

const defaultCacheSize = 1024

// CacheRequests counts transcription lookups by cache result.
var CacheRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "phrasebook_transcription_cache_requests_total",
		Help: "Total number of transcription cache lookups",
	},
	[]string{"result"},
)

// Collectors returns the package metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{CacheRequests}
}

type Options struct {
	// CacheSize bounds the number of memoized phrases. Zero means 1024.
	CacheSize int
	Log       logrus.FieldLogger
}

// Transcriber renders phrases phonetically: English words as IPA from the CMU
// dictionary, Japanese text as a hiragana reading. It is safe for concurrent use.
type Transcriber struct {
	dict     *dictionary.Dictionary
	cache    *lru.Cache[string, string]
	analyzer lazyAnalyzer
	log      logrus.FieldLogger

	analyzerWarned atomic.Bool
}

func New(dict *dictionary.Dictionary, opts Options) (*Transcriber, error) {
	if dict == nil {
		dict = dictionary.New()
	}
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Transcriber{dict: dict, cache: cache, log: log}, nil
}

// Transcription is the value served for a word: Placeholder when the phrase is
// empty, its conversion otherwise.
func (t *Transcriber) Transcription(phrase string) string {
	if phrase == "" {
		return Placeholder
	}
	return t.Convert(phrase)
}

// Convert returns the phonetic rendering of phrase.
func (t *Transcriber) Convert(phrase string) string {
	if v, ok := t.cache.Get(phrase); ok {
		CacheRequests.WithLabelValues("hit").Inc()
		return v
	}
	CacheRequests.WithLabelValues("miss").Inc()
	out := t.convert(phrase)
	t.cache.Add(phrase, out)
	return out
}

func (t *Transcriber) convert(phrase string) string {
	text := norm.NFC.String(strings.TrimSpace(phrase))
	if isJapanese(text) {
		return t.kana(text)
	}

	// Casers keep state, so each conversion gets its own.
	text = cases.Lower(language.English).String(text)
	words := strings.Fields(text)
	out := make([]string, 0, len(words))
	for _, w := range words {
		out = append(out, t.word(w))
	}
	return strings.Join(out, " ")
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
}

// word converts one whitespace-separated token, keeping surrounding punctuation.
func (t *Transcriber) word(w string) string {
	start := strings.IndexFunc(w, isWordRune)
	if start < 0 {
		return w
	}
	last := strings.LastIndexFunc(w, isWordRune)
	_, size := utf8.DecodeRuneInString(w[last:])
	end := last + size

	prefix, core, suffix := w[:start], w[start:end], w[end:]
	if phones, ok := t.dict.Lookup(core); ok {
		return prefix + dictionary.ToIPA(phones) + suffix
	}
	return prefix + core + UnknownMark + suffix
}

func (t *Transcriber) kana(text string) string {
	a, err := t.analyzer.get()
	if err != nil {
		if t.analyzerWarned.CompareAndSwap(false, true) {
			t.log.WithError(err).Warn("japanese analyzer unavailable")
		}
		return text + UnknownMark
	}

	var b strings.Builder
	for _, tok := range a.Analyze(text) {
		if tok.Reading != "" {
			b.WriteString(dictionary.ToHiragana(tok.Reading))
		} else {
			b.WriteString(tok.Surface)
		}
	}
	return b.String()
}

// Warm converts phrases on a worker pool so the first reads hit the cache.
// It returns how many phrases were converted.
func (t *Transcriber) Warm(ctx context.Context, phrases []string, workers int) (int, error) {
	pool := NewWorkerPool(workers, workers*4)
	pool.Start(ctx)

	var done atomic.Int64
	var submitErr error
	for _, p := range phrases {
		if p == "" {
			continue
		}
		phrase := p
		err := pool.Submit(ctx, func(ctx context.Context) error {
			t.Convert(phrase)
			done.Add(1)
			return nil
		})
		if err != nil {
			submitErr = err
			break
		}
	}
	pool.Close()

	n := int(done.Load())
	t.log.WithFields(logrus.Fields{"phrases": n, "workers": workers}).Debug("transcription cache warmed")
	if submitErr != nil {
		return n, submitErr
	}
	return n, ctx.Err()
}
