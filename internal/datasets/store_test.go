package datasets

import (
	"context"
	"errors"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kjstillabower/geo-data-maps/internal/cache"
	"github.com/kjstillabower/geo-data-maps/internal/service"
)

// fakeUpstream serves canned bodies per source and records calls.
type fakeUpstream struct {
	mu     sync.Mutex
	bodies map[string][]byte
	errs   map[string]error
	calls  map[string]int
	urls   []string
	forms  []url.Values
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		bodies: make(map[string][]byte),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (f *fakeUpstream) Get(ctx context.Context, source, rawURL string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[source]++
	f.urls = append(f.urls, rawURL)
	if err := f.errs[source]; err != nil {
		return nil, err
	}
	return f.bodies[source], nil
}

func (f *fakeUpstream) PostForm(ctx context.Context, source, rawURL string, form url.Values) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[source]++
	f.urls = append(f.urls, rawURL)
	f.forms = append(f.forms, form)
	if err := f.errs[source]; err != nil {
		return nil, err
	}
	return f.bodies[source], nil
}

func (f *fakeUpstream) callCount(source string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[source]
}

func testFiles() Files {
	return Files{
		Antennas:     "antennenstandorte-5g_de.json",
		AntennasPrep: "ant_gdf.json",
		Mobile:       "mobilfunk.json",
		Wind:         "wind-turb.csv",
		Landscape:    "landschaft.gpkg",
		EVStations:   "ev_gdf.json",
		Kantone:      "gdf_kan.json",
		Bezirke:      "gdf_bez.json",
		Gemeinden:    "gdf_gem.json",
		KantoneShp:   "kantone.shp",
		BezirkeShp:   "bezirke.shp",
		GemeindenShp: "gemeinden.shp",
	}
}

func newTestStore(t *testing.T, up *fakeUpstream, opts Options) *Store {
	t.Helper()
	if opts.DataDir == "" {
		opts.DataDir = t.TempDir()
	}
	if opts.Files == (Files{}) {
		opts.Files = testFiles()
	}
	if opts.OverpassURL == "" {
		opts.OverpassURL = "http://overpass.test/api/interpreter"
	}
	if opts.ZueriURL == "" {
		opts.ZueriURL = "http://zueri.test/en/api/v2/data"
	}
	fetcher := service.NewCachedFetcher(cache.NewInMemoryCache(30*24*time.Hour), service.Options{TTL: 24 * time.Hour})
	s, err := New(opts, fetcher, up, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func writeDataFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestWarmKey_Dispatch(t *testing.T) {
	up := newFakeUpstream()
	up.bodies["overpass"] = []byte(`{"elements":[]}`)
	up.bodies["zueri"] = []byte(`[]`)
	s := newTestStore(t, up, Options{})
	ctx := context.Background()

	if err := s.WarmKey(ctx, "osm:CH:books"); err != nil {
		t.Fatalf("WarmKey(osm) error = %v", err)
	}
	if up.callCount("overpass") != 1 {
		t.Errorf("overpass calls = %d, want 1", up.callCount("overpass"))
	}
	if err := s.WarmKey(ctx, "zueri:endpoints"); err != nil {
		t.Fatalf("WarmKey(zueri:endpoints) error = %v", err)
	}
	if err := s.WarmKey(ctx, "zueri:72"); err != nil {
		t.Fatalf("WarmKey(zueri:72) error = %v", err)
	}
	if up.callCount("zueri") != 2 {
		t.Errorf("zueri calls = %d, want 2", up.callCount("zueri"))
	}

	for _, key := range []string{"", "traffic:zurich", "regions:Dörfer", "osm:CH"} {
		if err := s.WarmKey(ctx, key); !errors.Is(err, ErrUnknownWarmKey) {
			t.Errorf("WarmKey(%q) error = %v, want ErrUnknownWarmKey", key, err)
		}
	}
}

func TestStartupKeys_AreKnown(t *testing.T) {
	s := newTestStore(t, newFakeUpstream(), Options{})
	for _, key := range StartupKeys {
		// The files are absent, so every key fails, but none as unknown.
		if err := s.WarmKey(context.Background(), key); errors.Is(err, ErrUnknownWarmKey) {
			t.Errorf("StartupKeys contains unknown key %q", key)
		}
	}
}

func TestLoadStatic_FailureNotMemoized(t *testing.T) {
	s := newTestStore(t, newFakeUpstream(), Options{})
	calls := 0
	load := func() (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("disk hiccup")
		}
		return 42, nil
	}
	if _, err := loadStatic(s, "n", load); err == nil {
		t.Fatal("first load: expected error")
	}
	v, err := loadStatic(s, "n", load)
	if err != nil || v != 42 {
		t.Fatalf("second load = %d, %v; want 42", v, err)
	}
	v, _ = loadStatic(s, "n", load)
	if v != 42 || calls != 2 {
		t.Errorf("memoized value = %d after %d loads, want 42 after 2", v, calls)
	}
}
