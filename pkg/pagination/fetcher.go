package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/people-finder/pkg/people"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxDepth is the default number of list pages a Stream will request.
const DefaultMaxDepth = 100

// Config holds page fetching configuration.
type Config struct {
	// MaxConcurrency caps parallel detail fetches within a page.
	// 0 means no cap: a page is already a bounded batch.
	MaxConcurrency int

	// MaxDepth is the maximum number of list calls per stream traversal.
	MaxDepth int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 0,
		MaxDepth:       DefaultMaxDepth,
	}
}

// ListEndpoint is the paginated list call of the People service.
type ListEndpoint interface {
	List(ctx context.Context, token string) (people.ListPage, error)
}

// DetailEndpoint is the per-person detail call of the People service.
type DetailEndpoint interface {
	Detail(ctx context.Context, id people.ID) (people.Person, error)
}

// Batch is one list page with its details resolved.
type Batch struct {
	// NextToken is copied from the list page; empty on the last page.
	NextToken string

	// People holds the successfully fetched details in list order.
	People []people.Person
}

// ListFetchError is returned by FetchPage when the list call itself fails.
type ListFetchError struct {
	Token string
	Err   error
}

// Error implements the error interface.
func (e *ListFetchError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("fetch first list page: %v", e.Err)
	}
	return fmt.Sprintf("fetch list page (token=%s): %v", e.Token, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ListFetchError) Unwrap() error {
	return e.Err
}

// PageFetcher resolves one list page into a Batch.
type PageFetcher struct {
	list   ListEndpoint
	detail DetailEndpoint
	config Config
	logger zerolog.Logger
}

// NewPageFetcher creates a page fetcher.
func NewPageFetcher(list ListEndpoint, detail DetailEndpoint, config Config, logger zerolog.Logger) *PageFetcher {
	if config.MaxConcurrency < 0 {
		config.MaxConcurrency = 0
	}
	if config.MaxDepth <= 0 {
		config.MaxDepth = DefaultMaxDepth
	}

	return &PageFetcher{
		list:   list,
		detail: detail,
		config: config,
		logger: logger,
	}
}

// FetchPage lists one page and fetches every detail on it concurrently.
// A failed detail is logged and dropped; it never fails the page.
// Only a failed list call returns an error (*ListFetchError).
func (f *PageFetcher) FetchPage(ctx context.Context, token string) (Batch, error) {
	start := time.Now()

	page, err := f.list.List(ctx, token)
	if err != nil {
		return Batch{}, &ListFetchError{Token: token, Err: err}
	}

	// Each goroutine owns one slot, so output order follows list order
	// regardless of completion order.
	results := make([]people.Person, len(page.IDs))
	ok := make([]bool, len(page.IDs))

	var g errgroup.Group
	if f.config.MaxConcurrency > 0 {
		g.SetLimit(f.config.MaxConcurrency)
	}
	for i, id := range page.IDs {
		g.Go(func() error {
			person, err := f.detail.Detail(ctx, id)
			if err != nil {
				detailFailuresTotal.Inc()
				f.logger.Warn().
					Err(err).
					Int64("id", int64(id)).
					Str("token", token).
					Msg("Detail fetch failed, dropping person")
				return nil
			}
			results[i] = person
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()

	batch := Batch{
		NextToken: page.NextToken,
		People:    make([]people.Person, 0, len(page.IDs)),
	}
	for i := range results {
		if ok[i] {
			batch.People = append(batch.People, results[i])
		}
	}

	pagesFetchedTotal.Inc()
	pageDuration.Observe(time.Since(start).Seconds())
	f.logger.Debug().
		Str("token", token).
		Int("ids", len(page.IDs)).
		Int("people", len(batch.People)).
		Int("failed", len(page.IDs)-len(batch.People)).
		Bool("has_next", page.HasNext()).
		Dur("duration", time.Since(start)).
		Msg("Page fetched")

	return batch, nil
}

// MaxDepth returns the configured page depth limit.
func (f *PageFetcher) MaxDepth() int {
	return f.config.MaxDepth
}
