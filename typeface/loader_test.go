package typeface_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/sigil-dev/sigil/typeface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loadEvents struct {
	started  []string
	loaded   []string
	failed   []error
	progress int
	lastSeen int64
	total    int64
}

func (e *loadEvents) manager() *typeface.Manager {
	return &typeface.Manager{
		OnStart: func(url string) {
			e.started = append(e.started, url)
		},
		OnProgress: func(url string, loaded, total int64) {
			e.progress++
			e.lastSeen = loaded
			e.total = total
		},
		OnLoad: func(url string) {
			e.loaded = append(e.loaded, url)
		},
		OnError: func(url string, err error) {
			e.failed = append(e.failed, err)
		},
	}
}

func Test_Loader_LoadFile(t *testing.T) {
	var events loadEvents
	loader := typeface.NewLoader(events.manager())

	font, err := loader.LoadFile("testdata/sigilsans.json")
	require.NoError(t, err)
	assert.Equal(t, "Sigil Sans", font.FamilyName())

	raw, err := os.ReadFile("testdata/sigilsans.json")
	require.NoError(t, err)

	assert.Equal(t, []string{"testdata/sigilsans.json"}, events.started)
	assert.Equal(t, []string{"testdata/sigilsans.json"}, events.loaded)
	assert.Empty(t, events.failed)
	assert.Equal(t, 1, events.progress)
	assert.Equal(t, int64(len(raw)), events.lastSeen)
	assert.Equal(t, int64(len(raw)), events.total)
}

func Test_Loader_LoadFile_Errors(t *testing.T) {
	var events loadEvents
	loader := typeface.NewLoader(events.manager())

	_, err := loader.LoadFile("testdata/absent.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to read file")
	require.Len(t, events.failed, 1)

	corrupted := "testdata/corrupted.json"
	require.NoError(t, os.WriteFile(corrupted, []byte(`{"resolution":1000}`), 0644))
	t.Cleanup(func() { _ = os.Remove(corrupted) })

	_, err = loader.LoadFile(corrupted)
	assert.EqualError(t, err, "font description has no glyphs")
	assert.Len(t, events.failed, 2)
}

func Test_Loader_Load(t *testing.T) {
	raw, err := os.ReadFile("testdata/sigilsans.json")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	var events loadEvents
	loader := typeface.NewLoader(events.manager()).WithHTTPClient(srv.Client())

	font, err := loader.Load(t.Context(), srv.URL+"/sigilsans.json")
	require.NoError(t, err)
	assert.Equal(t, "Sigil Sans", font.FamilyName())

	assert.Equal(t, []string{srv.URL + "/sigilsans.json"}, events.started)
	assert.Len(t, events.loaded, 1)
	assert.Empty(t, events.failed)
	assert.GreaterOrEqual(t, events.progress, 1)
	assert.Equal(t, int64(len(raw)), events.lastSeen)
}

func Test_Loader_Load_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such font", http.StatusNotFound)
	}))
	defer srv.Close()

	var events loadEvents
	loader := typeface.NewLoader(events.manager()).WithHTTPClient(srv.Client())

	_, err := loader.Load(t.Context(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch font failed: 404")
	require.Len(t, events.failed, 1)
	assert.Empty(t, events.loaded)

	_, err = loader.Load(t.Context(), "http://127.0.0.1:1/absent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch font")
	assert.Len(t, events.failed, 2)
}

func Test_Loader_NilManager(t *testing.T) {
	loader := typeface.NewLoader(nil)

	font, err := loader.LoadFile("testdata/sigilsans.json")
	require.NoError(t, err)
	assert.Equal(t, "Sigil Sans", font.FamilyName())
}
