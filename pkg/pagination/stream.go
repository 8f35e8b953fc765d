package pagination

import (
	"context"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/Sternrassler/people-finder/pkg/people"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is the lifecycle position of a Stream.
type State int

const (
	StateStart State = iota
	StateFetching
	StateEmitting
	StateExhausted
	StateFailed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateFetching:
		return "fetching"
	case StateEmitting:
		return "emitting"
	case StateExhausted:
		return "exhausted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// BatchFetcher resolves one list page into a Batch. *PageFetcher implements it.
type BatchFetcher interface {
	FetchPage(ctx context.Context, token string) (Batch, error)
}

// Option configures a Stream.
type Option func(*Stream)

// WithMaxDepth bounds the number of list calls. Values <= 0 keep the default.
func WithMaxDepth(depth int) Option {
	return func(s *Stream) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// Stream is a lazy, single-pass sequence of people across list pages.
//
// Pages are requested only as the consumer pulls. A list failure ends the
// sequence without surfacing an error; State and Err expose what happened.
type Stream struct {
	fetcher  BatchFetcher
	maxDepth int
	logger   zerolog.Logger

	mu     sync.Mutex
	id     string
	state  State
	err    error
	pages  int
	opened bool
}

// NewStream creates a stream over fetcher.
func NewStream(fetcher BatchFetcher, logger zerolog.Logger, opts ...Option) *Stream {
	s := &Stream{
		fetcher:  fetcher,
		maxDepth: DefaultMaxDepth,
		id:       uuid.NewString(),
		state:    StateStart,
	}
	if pf, ok := fetcher.(*PageFetcher); ok {
		s.maxDepth = pf.MaxDepth()
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.With().Str("stream_id", s.id).Logger()
	return s
}

// All returns the sequence of people. Only the first traversal yields
// anything; later calls log a warning and yield nothing.
func (s *Stream) All(ctx context.Context) iter.Seq[people.Person] {
	return func(yield func(people.Person) bool) {
		if !s.open() {
			s.logger.Warn().Msg("Stream already consumed, yielding nothing")
			return
		}

		start := time.Now()
		token := ""
		emitted := 0

		for {
			s.setState(StateFetching)
			batch, err := s.fetcher.FetchPage(ctx, token)
			depth := s.countPage()
			if err != nil {
				s.logger.Error().
					Err(err).
					Str("token", token).
					Int("depth", depth).
					Msg("List fetch failed, ending stream")
				s.finish(StateFailed, err, "list_error")
				return
			}

			s.setState(StateEmitting)
			for _, person := range batch.People {
				if !yield(person) {
					s.logger.Debug().
						Int("depth", depth).
						Int("emitted", emitted).
						Msg("Consumer stopped stream")
					s.finish(StateExhausted, nil, "consumer_stop")
					return
				}
				emitted++
			}

			if batch.NextToken == "" {
				s.finish(StateExhausted, nil, "last_page")
				break
			}
			if depth >= s.maxDepth {
				s.logger.Info().
					Int("depth", depth).
					Str("token", batch.NextToken).
					Msg("Max depth reached, ending stream")
				s.finish(StateExhausted, nil, "max_depth")
				break
			}
			token = batch.NextToken
		}

		s.logger.Info().
			Int("pages", s.Pages()).
			Int("emitted", emitted).
			Dur("duration", time.Since(start)).
			Msg("Stream exhausted")
	}
}

// Collect drains the stream into a slice.
func (s *Stream) Collect(ctx context.Context) []people.Person {
	return Collect(s.All(ctx))
}

// Collect drains seq into a slice.
func Collect(seq iter.Seq[people.Person]) []people.Person {
	out := slices.Collect(seq)
	if out == nil {
		out = []people.Person{}
	}
	return out
}

// State returns the current lifecycle state.
func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the list error that ended the stream, or nil.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Pages returns the number of list calls made so far.
func (s *Stream) Pages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages
}

// ID returns the identifier used as stream_id in logs.
func (s *Stream) ID() string {
	return s.id
}

func (s *Stream) open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened {
		return false
	}
	s.opened = true
	return true
}

func (s *Stream) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Stream) countPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages++
	return s.pages
}

func (s *Stream) finish(state State, err error, reason string) {
	s.mu.Lock()
	s.state = state
	s.err = err
	s.mu.Unlock()
	streamTerminationsTotal.WithLabelValues(state.String(), reason).Inc()
}
