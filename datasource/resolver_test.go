package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource wraps a Source and counts reads per endpoint.
type countingSource struct {
	inner Source
	delay time.Duration
	mu    sync.Mutex
	reads map[string]int
}

func newCountingSource(files fstest.MapFS) *countingSource {
	return &countingSource{inner: NewFSSource(files), reads: make(map[string]int)}
}

func (s *countingSource) Read(ctx context.Context, endpoint string) ([]byte, error) {
	s.mu.Lock()
	s.reads[endpoint]++
	s.mu.Unlock()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.inner.Read(ctx, endpoint)
}

func (s *countingSource) count(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads[endpoint]
}

var testFiles = fstest.MapFS{
	"skills.json":   {Data: []byte(`[{"name":"Terraform"},{"name":"Go"}]`)},
	"projects.json": {Data: []byte(`{"categories":[{"id":"cloud","projects":[{"id":"p1"},{"id":"p2","category":"custom"}]},{"name":"web","projects":[{"id":"p3"}]}]}`)},
	"blog.json":     {Data: []byte(`{"items":[{"slug":"a"},{"slug":"b"}],"tags":["go"]}`)},
	"broken.json":   {Data: []byte(`{not json`)},
}

func TestConfigFor(t *testing.T) {
	assert.Equal(t, ModeStatic, ConfigFor("").Mode)
	assert.Equal(t, ModeStatic, ConfigFor("   ").Mode)

	cfg := ConfigFor("https://api.example.com/")
	assert.Equal(t, ModeRemote, cfg.Mode)
	assert.Equal(t, "https://api.example.com", cfg.BaseURL)
}

func TestResolveStaticCachesPayload(t *testing.T) {
	src := newCountingSource(testFiles)
	r := NewResolver(StaticConfig(), WithSource(src))

	first, err := r.Resolve(context.Background(), "skills")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), "skills")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, src.count("skills"))
	assert.Len(t, first.Collection(""), 2)
}

func TestResolveStaticConcurrentViewsReadOnce(t *testing.T) {
	src := newCountingSource(testFiles)
	src.delay = 20 * time.Millisecond
	cache := NewCache()
	r := NewResolver(StaticConfig(), WithSource(src), WithCache(cache))

	var wg sync.WaitGroup
	results := make([]*Dataset, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v := r.NewView(nil)
			defer v.Close()
			v.Load(context.Background(), "skills")
			st := v.Wait(context.Background())
			results[i] = st.Data
		}(i)
	}
	wg.Wait()

	require.NotNil(t, results[0])
	require.NotNil(t, results[1])
	assert.Equal(t, results[0].Collection(""), results[1].Collection(""))
	assert.Equal(t, 1, src.count("skills"))
	assert.Equal(t, 1, cache.Len())
}

func TestResolveStaticSharedCacheAcrossResolvers(t *testing.T) {
	src := newCountingSource(testFiles)
	cache := NewCache()
	a := NewResolver(StaticConfig(), WithSource(src), WithCache(cache))
	b := NewResolver(StaticConfig(), WithSource(src), WithCache(cache))

	_, err := a.Resolve(context.Background(), "skills")
	require.NoError(t, err)
	_, err = b.Resolve(context.Background(), "skills")
	require.NoError(t, err)
	assert.Equal(t, 1, src.count("skills"))
}

func TestResolveStaticMissingEndpoint(t *testing.T) {
	r := NewResolver(StaticConfig(), WithSource(NewFSSource(fstest.MapFS{})))

	_, err := r.Resolve(context.Background(), "projects")
	require.Error(t, err)

	var unavailable *DataUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "projects", unavailable.Endpoint)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestResolveStaticFailuresAreNotCached(t *testing.T) {
	files := fstest.MapFS{}
	src := newCountingSource(files)
	r := NewResolver(StaticConfig(), WithSource(src))

	_, err := r.Resolve(context.Background(), "late")
	require.Error(t, err)

	files["late.json"] = &fstest.MapFile{Data: []byte(`[]`)}
	_, err = r.Resolve(context.Background(), "late")
	require.NoError(t, err)
	assert.Equal(t, 2, src.count("late"))
}

func TestResolveStaticFailuresLeaveNoEntries(t *testing.T) {
	files := fstest.MapFS{}
	cache := NewCache()
	r := NewResolver(StaticConfig(), WithSource(NewFSSource(files)), WithCache(cache))

	for i := 0; i < 500; i++ {
		_, err := r.Resolve(context.Background(), fmt.Sprintf("nope-%d", i))
		require.Error(t, err)
	}
	_, err := r.Resolve(context.Background(), "../../etc/passwd")
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())
	assert.Empty(t, cache.entries)

	files["skills.json"] = &fstest.MapFile{Data: []byte(`[]`)}
	_, err = r.Resolve(context.Background(), "skills")
	require.NoError(t, err)
	assert.Len(t, cache.entries, 1)
	_, ok := cache.Get("nope-1")
	assert.False(t, ok)
	assert.Len(t, cache.entries, 1)
}

func TestCacheConcurrentFailuresLeaveNoEntries(t *testing.T) {
	cache := NewCache()
	fail := errors.New("boom")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Load("flaky", func() (*Dataset, error) {
				time.Sleep(time.Millisecond)
				return nil, fail
			})
			assert.ErrorIs(t, err, fail)
		}()
	}
	wg.Wait()
	assert.Empty(t, cache.entries)
}

func TestResolveStaticInvalidPayload(t *testing.T) {
	r := NewResolver(StaticConfig(), WithSource(NewFSSource(testFiles)))
	_, err := r.Resolve(context.Background(), "broken")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestResolveStaticRejectsTraversal(t *testing.T) {
	r := NewResolver(StaticConfig(), WithSource(NewFSSource(testFiles)))
	for _, endpoint := range []string{"", ".", "..", "../skills", "a/b", `a\b`} {
		_, err := r.Resolve(context.Background(), endpoint)
		assert.ErrorIs(t, err, ErrUnavailable, "endpoint %q", endpoint)
	}
}

func TestResolveStaticWithoutSource(t *testing.T) {
	r := NewResolver(StaticConfig())
	_, err := r.Resolve(context.Background(), "skills")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestResolveRemote(t *testing.T) {
	var gotPath, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"p1"}]`))
	}))
	defer srv.Close()

	src := newCountingSource(testFiles)
	r := NewResolver(RemoteConfig(srv.URL+"/"), WithSource(src))
	data, err := r.Resolve(context.Background(), "projects")
	require.NoError(t, err)

	assert.Equal(t, "/api/projects", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Len(t, data.Collection("projects"), 1)
	assert.Zero(t, src.count("projects"), "remote mode must not touch static data")
}

func TestResolveRemoteStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := NewResolver(RemoteConfig(srv.URL))
	_, err := r.Resolve(context.Background(), "blog")

	var remote *RemoteFetchError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusServiceUnavailable, remote.Status)
	assert.Equal(t, "Service Unavailable", remote.StatusText)
	assert.Equal(t, "blog", remote.Endpoint)
}

func TestFetchNeverErrors(t *testing.T) {
	r := NewResolver(StaticConfig(), WithSource(NewFSSource(fstest.MapFS{})))
	st := r.Fetch(context.Background(), "projects")

	assert.Equal(t, StatusFailed, st.Status)
	assert.Nil(t, st.Data)
	var unavailable *DataUnavailableError
	require.True(t, errors.As(st.Err, &unavailable))
	assert.Equal(t, "projects", unavailable.Endpoint)
}

func TestDatasetCollectionShapes(t *testing.T) {
	r := NewResolver(StaticConfig(), WithSource(NewFSSource(testFiles)))

	projects, err := r.Resolve(context.Background(), "projects")
	require.NoError(t, err)
	items := projects.Collection("projects")
	require.Len(t, items, 3)
	assert.Equal(t, "p1", items[0]["id"])
	assert.Equal(t, "cloud", items[0]["category"])
	assert.Equal(t, "custom", items[1]["category"])
	assert.Equal(t, "web", items[2]["category"])

	// The cached payload keeps its original shape.
	cats := projects.Value().(map[string]any)["categories"].([]any)
	first := cats[0].(map[string]any)["projects"].([]any)[0].(map[string]any)
	assert.NotContains(t, first, "category")
	assert.Equal(t, items, projects.Collection("projects"))

	blog, err := r.Resolve(context.Background(), "blog")
	require.NoError(t, err)
	assert.Len(t, blog.Collection("items"), 2)
	assert.Empty(t, blog.Collection("missing"))

	var nilSet *Dataset
	assert.Empty(t, nilSet.Collection("items"))
}

func TestViewDropsResultAfterClose(t *testing.T) {
	src := newCountingSource(testFiles)
	src.delay = 30 * time.Millisecond
	r := NewResolver(StaticConfig(), WithSource(src))

	var changes atomic.Int32
	v := r.NewView(func(State) { changes.Add(1) })
	v.Load(context.Background(), "skills")
	v.Close()

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, StatusLoading, v.State().Status)
	assert.Equal(t, int32(1), changes.Load(), "only the loading transition is observed")
}

func TestViewSupersededLoadIsIgnored(t *testing.T) {
	src := newCountingSource(testFiles)
	src.delay = 20 * time.Millisecond
	r := NewResolver(StaticConfig(), WithSource(src))

	var mu sync.Mutex
	var seen []Status
	v := r.NewView(func(st State) {
		mu.Lock()
		seen = append(seen, st.Status)
		mu.Unlock()
	})
	defer v.Close()

	v.Load(context.Background(), "missing")
	v.Load(context.Background(), "skills")
	st := v.Wait(context.Background())

	require.Equal(t, StatusReady, st.Status)
	assert.Equal(t, "skills", st.Data.Endpoint)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, StatusReady, seen[len(seen)-1])
	assert.NotContains(t, seen, StatusFailed)
}

func TestViewFailedState(t *testing.T) {
	r := NewResolver(StaticConfig(), WithSource(NewFSSource(fstest.MapFS{})))
	v := r.NewView(nil)
	defer v.Close()

	v.Load(context.Background(), "projects")
	st := v.Wait(context.Background())
	assert.Equal(t, StatusFailed, st.Status)
	assert.ErrorIs(t, st.Err, ErrUnavailable)
}

func TestViewWaitWithoutLoad(t *testing.T) {
	r := NewResolver(StaticConfig())
	v := r.NewView(nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Equal(t, StatusLoading, v.Wait(ctx).Status)
	assert.NoError(t, ctx.Err())
}
