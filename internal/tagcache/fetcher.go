package tagcache

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly"
	"github.com/gocolly/colly/extensions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	defaultParallelism = 2
	defaultDelay       = 300 * time.Millisecond

	fetchKey = "fetch"
)

// Fetcher retrieves the tags of one store title from the remote catalog.
type Fetcher interface {
	Fetch(ctx context.Context, id string) ([]string, error)
}

// DefaultLimit is the request rate the store tolerates before answering 429.
func DefaultLimit() *colly.LimitRule {
	return &colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: defaultParallelism,
		Delay:       defaultDelay,
	}
}

// StorePageFetcher scrapes the user tags shown on a store page. All fetches
// share one collector, so its limit rule holds across concurrent callers.
type StorePageFetcher struct {
	log       zerolog.Logger
	urlFormat string
	cc        *colly.Collector

	mu      sync.Mutex
	seq     uint64
	pending map[string]*pageResult
}

type pageResult struct {
	tags []string
	err  error
}

// NewStorePageFetcher creates a fetcher. urlFormat carries one %s for the id.
// A nil limit uses DefaultLimit.
func NewStorePageFetcher(log zerolog.Logger, urlFormat string, timeout time.Duration, limit *colly.LimitRule) *StorePageFetcher {
	f := &StorePageFetcher{
		log:       log.With().Str("module", "tagcache").Str("fetcher", "storepage").Logger(),
		urlFormat: urlFormat,
		pending:   make(map[string]*pageResult),
	}

	if limit == nil {
		limit = DefaultLimit()
	}

	cc := colly.NewCollector(
		colly.AllowURLRevisit(),
	)
	cc.SetRequestTimeout(timeout)
	extensions.RandomUserAgent(cc)
	if err := cc.Limit(limit); err != nil {
		f.log.Warn().Err(err).Msg("invalid limit rule, requests are not throttled")
	}

	cc.OnRequest(func(r *colly.Request) {
		// skip the age gate so adult titles expose their tags
		r.Headers.Set("Cookie", "birthtime=0; lastagecheckage=1-0-1970; mature_content=1")
		f.log.Trace().Str("url", r.URL.String()).Msg("visiting")
	})

	cc.OnHTML("a.app_tag", func(e *colly.HTMLElement) {
		res := f.result(e.Request.Ctx)
		if res == nil {
			return
		}
		if tag := strings.TrimSpace(e.Text); tag != "" {
			res.tags = append(res.tags, tag)
		}
	})

	cc.OnError(func(r *colly.Response, err error) {
		if res := f.result(r.Ctx); res != nil {
			res.err = errors.Wrapf(err, "status %d", r.StatusCode)
		}
	})

	f.cc = cc
	return f
}

func (f *StorePageFetcher) Fetch(ctx context.Context, id string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, res := f.begin()
	defer f.end(key)

	reqCtx := colly.NewContext()
	reqCtx.Put(fetchKey, key)

	url := fmt.Sprintf(f.urlFormat, id)
	err := f.cc.Request(http.MethodGet, url, nil, reqCtx, nil)
	if res.err != nil {
		return nil, res.err
	}
	if err != nil {
		return nil, errors.Wrapf(err, "visit %s", url)
	}

	return res.tags, nil
}

func (f *StorePageFetcher) begin() (string, *pageResult) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	key := strconv.FormatUint(f.seq, 10)
	res := &pageResult{}
	f.pending[key] = res
	return key, res
}

func (f *StorePageFetcher) end(key string) {
	f.mu.Lock()
	delete(f.pending, key)
	f.mu.Unlock()
}

func (f *StorePageFetcher) result(ctx *colly.Context) *pageResult {
	if ctx == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending[ctx.Get(fetchKey)]
}
