package tagcache

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocolly/colly"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	calls atomic.Int32
	tags  map[string][]string
	err   error
}

func (f *fakeFetcher) Fetch(ctx context.Context, id string) ([]string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.tags[id], nil
}

func TestStore_PersistAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tags.db")

	store := NewStore(zerolog.Nop(), path)
	_, ok := store.Get(ctx, "620")
	assert.False(t, ok)

	store.Put(ctx, "620", []string{"Puzzle", "Co-op"})
	require.NoError(t, store.Persist(ctx))
	require.NoError(t, store.Close())

	reopened := NewStore(zerolog.Nop(), path)
	defer reopened.Close()

	tags, ok := reopened.Get(ctx, "620")
	require.True(t, ok)
	assert.Equal(t, []string{"Puzzle", "Co-op"}, tags)
	assert.Equal(t, 1, reopened.Len())
}

func TestStore_MemoryOnly(t *testing.T) {
	ctx := context.Background()
	store := NewStore(zerolog.Nop(), "")

	require.NoError(t, store.Load(ctx))
	store.Put(ctx, "1", []string{"Action"})
	require.NoError(t, store.Persist(ctx))

	tags, ok := store.Get(ctx, "1")
	assert.True(t, ok)
	assert.Equal(t, []string{"Action"}, tags)
}

func TestService_CachesSuccessfulLookups(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{tags: map[string][]string{"440": {"FPS", "Free to Play"}}}
	svc := NewService(zerolog.Nop(), NewStore(zerolog.Nop(), ""), fetcher)

	assert.Equal(t, []string{"FPS", "Free to Play"}, svc.Tags(ctx, "440"))
	assert.Equal(t, []string{"FPS", "Free to Play"}, svc.Tags(ctx, "440"))
	assert.Equal(t, int32(1), fetcher.calls.Load())

	assert.Nil(t, svc.Tags(ctx, "999"))
	assert.Nil(t, svc.Tags(ctx, "999"))
	assert.Equal(t, int32(3), fetcher.calls.Load())
}

func TestService_FailedLookupIsNotCached(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{err: errors.New("429 too many requests")}
	svc := NewService(zerolog.Nop(), NewStore(zerolog.Nop(), ""), fetcher)

	assert.Nil(t, svc.Tags(ctx, "440"))

	fetcher.err = nil
	fetcher.tags = map[string][]string{"440": {"FPS"}}
	assert.Equal(t, []string{"FPS"}, svc.Tags(ctx, "440"))
}

func TestStorePageFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/app/620/":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body><div class="glance_tags">
				<a class="app_tag" href="#"> Puzzle </a>
				<a class="app_tag" href="#">Co-op</a>
				<a class="other" href="#">Not a tag</a>
			</div></body></html>`)
		case "/app/429/":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/app/slow/":
			time.Sleep(500 * time.Millisecond)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	fetcher := NewStorePageFetcher(zerolog.Nop(), srv.URL+"/app/%s/", 200*time.Millisecond, nil)
	ctx := context.Background()

	tags, err := fetcher.Fetch(ctx, "620")
	require.NoError(t, err)
	assert.Equal(t, []string{"Puzzle", "Co-op"}, tags)

	_, err = fetcher.Fetch(ctx, "429")
	assert.Error(t, err)

	_, err = fetcher.Fetch(ctx, "slow")
	assert.Error(t, err)
}

func TestStorePageFetcher_Throttled(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><a class="app_tag">%s</a></body></html>`, r.URL.Path)
	}))
	defer srv.Close()

	limit := &colly.LimitRule{DomainGlob: "*", Parallelism: 1, Delay: 100 * time.Millisecond}
	fetcher := NewStorePageFetcher(zerolog.Nop(), srv.URL+"/app/%s/", 2*time.Second, limit)

	ids := []string{"10", "20", "30", "40"}
	results := make([][]string, len(ids))

	start := time.Now()
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			tags, err := fetcher.Fetch(context.Background(), id)
			assert.NoError(t, err)
			results[i] = tags
		}(i, id)
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak.Load())
	assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)
	for i, id := range ids {
		assert.Equal(t, []string{"/app/" + id + "/"}, results[i])
	}
}
