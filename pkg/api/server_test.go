package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LiableFish/English-Phrasebook-App/pkg/db"
	"github.com/LiableFish/English-Phrasebook-App/pkg/dictionary"
	"github.com/LiableFish/English-Phrasebook-App/pkg/transcribe"
)

const secret = "abc"

type fixture struct {
	catA, catB db.Category
	lvlX, lvlY db.Level
	t1, t2, t3 db.Theme
	hello      db.Word
}

func setupDB(t *testing.T) (*sql.DB, fixture) {
	t.Helper()
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	// Ensure single connection to avoid separate in-memory DBs per connection.
	conn.SetMaxOpenConns(1)
	require.NoError(t, db.InitDB(conn))
	t.Cleanup(func() { conn.Close() })

	f := fixture{
		catA: db.Category{Name: "Travel", Icon: "icons/Travel/travel.png"},
		catB: db.Category{Name: "Food"},
		lvlX: db.Level{Code: "A1", Name: "Beginner"},
		lvlY: db.Level{Code: "B2", Name: "Upper intermediate"},
	}
	require.NoError(t, db.SaveCategory(conn, &f.catA))
	require.NoError(t, db.SaveCategory(conn, &f.catB))
	require.NoError(t, db.SaveLevel(conn, &f.lvlX))
	require.NoError(t, db.SaveLevel(conn, &f.lvlY))
	f.t1 = db.Theme{Name: "Airport", CategoryID: f.catA.ID, LevelID: f.lvlX.ID}
	f.t2 = db.Theme{Name: "Hotel", CategoryID: f.catA.ID, LevelID: f.lvlY.ID, Photo: "photos/Hotel/lobby.jpg"}
	f.t3 = db.Theme{Name: "Restaurant", CategoryID: f.catB.ID, LevelID: f.lvlX.ID}
	for _, th := range []*db.Theme{&f.t1, &f.t2, &f.t3} {
		require.NoError(t, db.SaveTheme(conn, th))
	}
	f.hello = db.Word{ThemeID: f.t2.ID, Name: "hello", Translation: "привет", Example: "Hello, is this the front desk?", Sound: "sounds/hello/hello world.mp3"}
	require.NoError(t, db.SaveWord(conn, &f.hello))
	bye := db.Word{ThemeID: f.t2.ID, Name: "check out", Translation: "выехать", Example: "I'd like to check out."}
	require.NoError(t, db.SaveWord(conn, &bye))
	return conn, f
}

func newTestServer(t *testing.T, gate Gate) (*Server, fixture) {
	t.Helper()
	conn, f := setupDB(t)

	dict, err := dictionary.Parse(strings.NewReader("hello HH AH0 L OW1\n"))
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()
	tr, err := transcribe.New(dict, transcribe.Options{CacheSize: 16, Log: logger})
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "sounds/hello/hello world.mp3", []byte("ID3 audio"), 0o644))

	s := NewServer(Options{DB: conn, Transcriber: tr, Gate: gate, Media: fs, MediaURL: "/media/", Log: logger})
	return s, f
}

func do(t *testing.T, s http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestGatePermits(t *testing.T) {
	tests := []struct {
		name   string
		gate   Gate
		header string
		want   bool
	}{
		{"matching secret", Gate{Secret: "abc"}, "abc", true},
		{"missing header", Gate{Secret: "abc"}, "", false},
		{"wrong secret", Gate{Secret: "abc"}, "abd", false},
		{"prefix of secret", Gate{Secret: "abc"}, "ab", false},
		{"empty configured secret", Gate{}, "", false},
		{"debug without header", Gate{Secret: "abc", Debug: true}, "", true},
		{"debug with wrong header", Gate{Secret: "abc", Debug: true}, "nope", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/categories/", nil)
			if tt.header != "" {
				r.Header.Set("Secret", tt.header)
			}
			assert.Equal(t, tt.want, tt.gate.Permits(r))
		})
	}
}

func TestDataEndpointsRequireSecret(t *testing.T) {
	s, _ := newTestServer(t, Gate{Secret: secret})
	paths := []string{"/categories/", "/levels/", "/themes/", "/themes/1", "/words/1"}
	for _, p := range paths {
		rec := do(t, s, p)
		assert.Equal(t, http.StatusForbidden, rec.Code, p)
		assert.JSONEq(t, `{"detail":"Correct SECRET header was not provided."}`, rec.Body.String())

		rec = do(t, s, p, "Secret", secret)
		assert.Equal(t, http.StatusOK, rec.Code, p)
	}
}

func TestDebugBypassesGate(t *testing.T) {
	s, _ := newTestServer(t, Gate{Secret: secret, Debug: true})
	rec := do(t, s, "/levels/")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListCategories(t *testing.T) {
	s, f := newTestServer(t, Gate{Debug: true})
	rec := do(t, s, "/categories/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got []map[string]interface{}
	decode(t, rec, &got)
	require.Len(t, got, 2)
	assert.Equal(t, float64(f.catA.ID), got[0]["id"])
	assert.Equal(t, "Travel", got[0]["name"])
	assert.Equal(t, "http://example.com/media/icons/Travel/travel.png", got[0]["icon"])
	assert.Nil(t, got[1]["icon"])
}

func TestListLevels(t *testing.T) {
	s, _ := newTestServer(t, Gate{Debug: true})
	rec := do(t, s, "/levels/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Beginner","code":"A1"},{"id":2,"name":"Upper intermediate","code":"B2"}]`, rec.Body.String())
}

func TestListThemesFilters(t *testing.T) {
	s, f := newTestServer(t, Gate{Secret: secret})
	a := f.catA.ID
	x, y := f.lvlX.ID, f.lvlY.ID

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"no filters", "", []string{"Airport", "Hotel", "Restaurant"}},
		{"category A", "?category=" + itoa(a), []string{"Airport", "Hotel"}},
		{"level X", "?level=" + itoa(x), []string{"Airport", "Restaurant"}},
		{"both", "?category=" + itoa(a) + "&level=" + itoa(x), []string{"Airport"}},
		{"level Y", "?level=" + itoa(y), []string{"Hotel"}},
		{"missing category", "?category=999", []string{}},
		{"non-numeric", "?category=travel", []string{}},
		{"empty value", "?level=", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, "/themes/"+tt.query, "Secret", secret)
			require.Equal(t, http.StatusOK, rec.Code)
			var got []themeView
			decode(t, rec, &got)
			names := []string{}
			for _, th := range got {
				names = append(names, th.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestThemeDetail(t *testing.T) {
	s, f := newTestServer(t, Gate{Debug: true})
	rec := do(t, s, "/themes/"+itoa(f.t2.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]interface{}
	decode(t, rec, &got)
	assert.Equal(t, "Hotel", got["name"])
	assert.Equal(t, float64(f.catA.ID), got["category"])
	assert.Equal(t, float64(f.lvlY.ID), got["level"])
	assert.Equal(t, "http://example.com/media/photos/Hotel/lobby.jpg", got["photo"])
	assert.Equal(t, []interface{}{
		map[string]interface{}{"id": float64(f.hello.ID), "name": "hello"},
		map[string]interface{}{"id": float64(f.hello.ID + 1), "name": "check out"},
	}, got["words"])

	rec = do(t, s, "/themes/"+itoa(f.t1.ID))
	decode(t, rec, &got)
	assert.Equal(t, []interface{}{}, got["words"])
	assert.Nil(t, got["photo"])
}

func TestWordDetail(t *testing.T) {
	s, f := newTestServer(t, Gate{Debug: true})
	rec := do(t, s, "/words/"+itoa(f.hello.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var got wordView
	decode(t, rec, &got)
	assert.Equal(t, "hello", got.Name)
	assert.Equal(t, "привет", got.Translation)
	assert.NotEmpty(t, got.Transcription)
	assert.Equal(t, "həˈloʊ", got.Transcription)
	require.NotNil(t, got.Sound)
	assert.Equal(t, "http://example.com/media/sounds/hello/hello%20world.mp3", *got.Sound)

	rec = do(t, s, "/words/"+itoa(f.hello.ID+1))
	decode(t, rec, &got)
	assert.Equal(t, "check* out*", got.Transcription)
	assert.Nil(t, got.Sound)
}

func TestWordWithoutPhraseGetsPlaceholder(t *testing.T) {
	s, _ := newTestServer(t, Gate{Debug: true})
	r := httptest.NewRequest(http.MethodGet, "/words/1", nil)
	v := s.wordView(r, db.Word{ID: 1})
	assert.Equal(t, "Phrase has not be added yet", v.Transcription)
}

func TestDetailNotFound(t *testing.T) {
	s, _ := newTestServer(t, Gate{Debug: true})
	for _, p := range []string{"/themes/999", "/words/999", "/words/abc", "/nowhere"} {
		rec := do(t, s, p)
		assert.Equal(t, http.StatusNotFound, rec.Code, p)
		assert.JSONEq(t, `{"detail":"Not found."}`, rec.Body.String(), p)
	}
}

func TestRouteVariants(t *testing.T) {
	s, f := newTestServer(t, Gate{Debug: true})
	for _, p := range []string{"/categories", "/categories.json", "/themes.json?level=1", "/words/" + itoa(f.hello.ID) + ".json"} {
		assert.Equal(t, http.StatusOK, do(t, s, p).Code, p)
	}
}

func TestAbsoluteMediaURL(t *testing.T) {
	s, f := newTestServer(t, Gate{Debug: true})
	s.mediaURL = "https://cdn.example.org/media"
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "https://cdn.example.org/media/icons/Travel/travel.png", *s.fileURL(r, f.catA.Icon))
}

func TestServeMedia(t *testing.T) {
	s, _ := newTestServer(t, Gate{Secret: secret})

	rec := do(t, s, "/media/sounds/hello/hello%20world.mp3")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ID3 audio", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, do(t, s, "/media/sounds/hello/").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, "/media/sounds/missing.mp3").Code)
}

func TestIndexHealthMetrics(t *testing.T) {
	s, _ := newTestServer(t, Gate{Secret: secret})

	rec := do(t, s, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "English Phrasebook")
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec = do(t, s, "/health")
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	do(t, s, "/levels/")
	rec = do(t, s, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `phrasebook_http_requests_total{method="GET",route="/levels{suffix:(?:/|\\.json)?}",status="403"} 1`)
}

func TestRequestIDIsKept(t *testing.T) {
	s, _ := newTestServer(t, Gate{Debug: true})
	rec := do(t, s, "/levels/", RequestIDHeader, "req-42")
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
}

func TestPanicRecovery(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := recoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Len(t, hook.AllEntries(), 1)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
