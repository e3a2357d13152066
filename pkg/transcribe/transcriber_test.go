package transcribe

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LiableFish/English-Phrasebook-App/pkg/dictionary"
)

const testDict = `hello HH AH0 L OW1
good G UH1 D
morning M AO1 R N IH0 NG
don't D OW1 N T
`

func newTestTranscriber(t *testing.T, cacheSize int) *Transcriber {
	t.Helper()
	dict, err := dictionary.Parse(strings.NewReader(testDict))
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()
	tr, err := New(dict, Options{CacheSize: cacheSize, Log: logger})
	require.NoError(t, err)
	return tr
}

func TestTranscriptionPlaceholder(t *testing.T) {
	tr := newTestTranscriber(t, 8)
	assert.Equal(t, "Phrase has not be added yet", tr.Transcription(""))
}

func TestTranscriptionHello(t *testing.T) {
	tr := newTestTranscriber(t, 8)
	got := tr.Transcription("hello")
	assert.NotEmpty(t, got)
	assert.Equal(t, "həˈloʊ", got)
}

func TestConvertPhrase(t *testing.T) {
	tr := newTestTranscriber(t, 8)

	tests := map[string]string{
		"Good morning!":   "gʊd ˈmɔrnɪŋ!",
		"  GOOD  ":        "gʊd",
		"don't":           "doʊnt",
		"hello, stranger": "həˈloʊ, stranger*",
		"(hello)":         "(həˈloʊ)",
		"...":             "...",
	}
	for in, want := range tests {
		assert.Equal(t, want, tr.Convert(in), "input %q", in)
	}
}

func TestConvertWithoutDictionary(t *testing.T) {
	logger, _ := test.NewNullLogger()
	tr, err := New(nil, Options{Log: logger})
	require.NoError(t, err)
	assert.Equal(t, "hello*", tr.Convert("hello"))
}

func TestConvertJapanese(t *testing.T) {
	if testing.Short() {
		t.Skip("loads the IPA dictionary")
	}
	tr := newTestTranscriber(t, 8)
	assert.Equal(t, "とうきょう", tr.Convert("東京"))
	assert.Equal(t, "こんにちは", tr.Convert("こんにちは"))
}

func TestConvertCachesResults(t *testing.T) {
	tr := newTestTranscriber(t, 2)
	first := tr.Convert("hello")
	assert.True(t, tr.cache.Contains("hello"))
	assert.Equal(t, first, tr.Convert("hello"))

	tr.Convert("good")
	tr.Convert("morning")
	assert.Equal(t, 2, tr.cache.Len())
	assert.False(t, tr.cache.Contains("hello"))
}

func TestWarm(t *testing.T) {
	tr := newTestTranscriber(t, 64)
	phrases := []string{"hello", "good morning", "", "don't"}
	for i := 0; i < 20; i++ {
		phrases = append(phrases, fmt.Sprintf("phrase%d", i))
	}

	n, err := tr.Warm(context.Background(), phrases, 4)
	require.NoError(t, err)
	assert.Equal(t, len(phrases)-1, n)
	assert.True(t, tr.cache.Contains("good morning"))
	assert.True(t, tr.cache.Contains("phrase19"))
}

func TestWarmCancelled(t *testing.T) {
	tr := newTestTranscriber(t, 64)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Warm(ctx, []string{"hello", "good"}, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
