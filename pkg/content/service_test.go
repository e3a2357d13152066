package content

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LiableFish/English-Phrasebook-App/pkg/db"
	"github.com/LiableFish/English-Phrasebook-App/pkg/media"
)

var (
	mp3Bytes = append([]byte("ID3\x03\x00\x00\x00\x00\x00\x00"), bytes.Repeat([]byte{0}, 64)...)
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 64)...)
)

type env struct {
	conn *sql.DB
	fs   afero.Fs
	svc  *Service
	hook *test.Hook
}

func setup(t *testing.T) *env {
	t.Helper()
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	// Ensure single connection to avoid separate in-memory DBs per connection.
	conn.SetMaxOpenConns(1)
	require.NoError(t, db.InitDB(conn))
	t.Cleanup(func() { conn.Close() })

	fs := afero.NewMemMapFs()
	logger, hook := test.NewNullLogger()
	return &env{conn: conn, fs: fs, svc: NewService(conn, media.NewStorage(fs), logger), hook: hook}
}

func upload(name string, data []byte) *media.Upload {
	return &media.Upload{Filename: name, Size: int64(len(data)), Content: bytes.NewReader(data)}
}

func (e *env) exists(t *testing.T, p string) bool {
	t.Helper()
	ok, err := afero.Exists(e.fs, p)
	require.NoError(t, err)
	return ok
}

// tree stores Travel/A1/Airport with an icon, a photo and one word with sound.
func (e *env) tree(t *testing.T) (db.Category, db.Level, db.Theme, db.Word) {
	t.Helper()
	ctx := context.Background()
	c := db.Category{Name: "Travel"}
	require.NoError(t, e.svc.SaveCategory(ctx, &c, upload("travel.png", pngBytes)))
	l := db.Level{Code: "A1", Name: "Beginner"}
	require.NoError(t, e.svc.SaveLevel(ctx, &l))
	th := db.Theme{Name: "Airport", CategoryID: c.ID, LevelID: l.ID}
	require.NoError(t, e.svc.SaveTheme(ctx, &th, upload("airport.png", pngBytes)))
	w := db.Word{ThemeID: th.ID, Name: "boarding pass", Translation: "посадочный талон", Example: "Show your boarding pass."}
	require.NoError(t, e.svc.SaveWord(ctx, &w, upload("pass.mp3", mp3Bytes)))
	return c, l, th, w
}

func TestSaveStoresUploads(t *testing.T) {
	e := setup(t)
	c, _, th, w := e.tree(t)

	assert.Equal(t, "icons/Travel/travel.png", c.Icon)
	assert.Equal(t, "photos/Airport/airport.png", th.Photo)
	assert.Equal(t, "sounds/boarding pass/pass.mp3", w.Sound)
	assert.True(t, e.exists(t, w.Sound))

	stored, err := db.GetWord(e.conn, w.ID)
	require.NoError(t, err)
	assert.Equal(t, w.Sound, stored.Sound)
}

func TestSaveRejectsInvalidUpload(t *testing.T) {
	e := setup(t)
	c, _, th, _ := e.tree(t)

	w := db.Word{ThemeID: th.ID, Name: "gate", Translation: "выход", Example: "Go to gate 5."}
	err := e.svc.SaveWord(context.Background(), &w, upload("gate.mp3", pngBytes))
	assert.ErrorIs(t, err, media.ErrUnsupportedType)
	assert.Zero(t, w.ID)
	assert.False(t, e.exists(t, "sounds/gate"))

	err = e.svc.SaveCategory(context.Background(), &c, upload("icon.png", mp3Bytes))
	assert.ErrorIs(t, err, media.ErrUnsupportedType)
}

func TestSaveRemovesUploadWhenWriteFails(t *testing.T) {
	e := setup(t)
	_, _, th, _ := e.tree(t)

	dup := db.Word{ThemeID: th.ID, Name: "boarding pass", Translation: "x", Example: "y"}
	err := e.svc.SaveWord(context.Background(), &dup, upload("other.mp3", mp3Bytes))
	assert.ErrorIs(t, err, db.ErrDuplicate)
	assert.False(t, e.exists(t, "sounds/boarding pass/other.mp3"))
	assert.True(t, e.exists(t, "sounds/boarding pass/pass.mp3"))
}

func TestSaveReplacesFile(t *testing.T) {
	e := setup(t)
	_, _, _, w := e.tree(t)
	old := w.Sound

	require.NoError(t, e.svc.SaveWord(context.Background(), &w, upload("new.mp3", mp3Bytes)))

	assert.Equal(t, "sounds/boarding pass/new.mp3", w.Sound)
	assert.False(t, e.exists(t, old))
	assert.True(t, e.exists(t, w.Sound))
}

func TestSaveSameFileTouchesNothing(t *testing.T) {
	e := setup(t)
	_, _, _, w := e.tree(t)
	e.hook.Reset()

	w.Translation = "посадочный"
	require.NoError(t, e.svc.SaveWord(context.Background(), &w, nil))

	assert.True(t, e.exists(t, w.Sound))
	assert.Empty(t, e.hook.AllEntries())
}

func TestSaveUnknownIDSkipsCleanup(t *testing.T) {
	e := setup(t)
	_, _, th, _ := e.tree(t)

	w := db.Word{ID: 42, ThemeID: th.ID, Name: "passport", Translation: "паспорт", Example: "Passport, please."}
	require.NoError(t, e.svc.SaveWord(context.Background(), &w, nil))
	assert.Equal(t, int64(42), w.ID)

	got, err := db.GetWord(e.conn, 42)
	require.NoError(t, err)
	assert.Equal(t, "passport", got.Name)
}

func TestClearFile(t *testing.T) {
	e := setup(t)
	c, l, th, _ := e.tree(t)
	ctx := context.Background()

	require.NoError(t, e.svc.ClearFile(ctx, KindTheme, th.ID))
	got, err := db.GetTheme(e.conn, th.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Photo)
	assert.False(t, e.exists(t, "photos/Airport"))

	require.NoError(t, e.svc.ClearFile(ctx, KindCategory, c.ID))
	assert.False(t, e.exists(t, "icons/Travel"))

	assert.ErrorIs(t, e.svc.ClearFile(ctx, KindLevel, l.ID), ErrNoFile)
	assert.ErrorIs(t, e.svc.ClearFile(ctx, KindWord, 999), db.ErrNotFound)
}

func TestDeleteCategoryCleansCascadedFiles(t *testing.T) {
	e := setup(t)
	c, _, _, _ := e.tree(t)

	require.NoError(t, e.svc.DeleteCategory(context.Background(), c.ID))

	for _, p := range []string{"icons/Travel", "photos/Airport", "sounds/boarding pass"} {
		assert.False(t, e.exists(t, p), p)
	}
	words, err := db.ListWordNames(e.conn)
	require.NoError(t, err)
	assert.Empty(t, words)
}

func TestDeleteLevelCleansThemes(t *testing.T) {
	e := setup(t)
	_, l, _, _ := e.tree(t)

	require.NoError(t, e.svc.Delete(context.Background(), KindLevel, l.ID))

	assert.False(t, e.exists(t, "photos/Airport"))
	assert.False(t, e.exists(t, "sounds/boarding pass"))
	assert.True(t, e.exists(t, "icons/Travel/travel.png"))
}

func TestDeleteWordWithMissingFile(t *testing.T) {
	e := setup(t)
	_, _, _, w := e.tree(t)
	require.NoError(t, e.fs.Remove(w.Sound))
	require.NoError(t, afero.WriteFile(e.fs, "sounds/boarding pass/notes.txt", []byte("keep"), 0o644))

	require.NoError(t, e.svc.DeleteWord(context.Background(), w.ID))

	assert.True(t, e.exists(t, "sounds/boarding pass/notes.txt"))
	_, err := db.GetWord(e.conn, w.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDeleteMissing(t *testing.T) {
	e := setup(t)
	assert.ErrorIs(t, e.svc.DeleteTheme(context.Background(), 7), db.ErrNotFound)
	assert.Error(t, e.svc.Delete(context.Background(), Kind("nope"), 1))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("words")
	require.NoError(t, err)
	assert.Equal(t, KindWord, k)
	_, err = ParseKind("phrases")
	assert.Error(t, err)
}
