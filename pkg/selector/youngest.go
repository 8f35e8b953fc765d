package selector

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/Sternrassler/people-finder/pkg/people"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	skippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "people_selector_skipped_total",
		Help: "Total number of people skipped by the youngest selector by reason",
	}, []string{"reason"})

	selectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "people_selector_selected_total",
		Help: "Total number of people returned by the youngest selector",
	})
)

// Skip reasons used as metric labels.
const (
	reasonNoPhone      = "no_phone"
	reasonInvalidPhone = "invalid_phone"
	reasonInvalidAge   = "invalid_age"
)

// Youngest keeps the K youngest people that have a valid US phone number.
type Youngest struct {
	k      int
	logger zerolog.Logger
}

// NewYoungest creates a selector for the k youngest people. k must be >= 1.
func NewYoungest(k int, logger zerolog.Logger) (*Youngest, error) {
	if k < 1 {
		return nil, fmt.Errorf("youngest count must be at least 1, got %d", k)
	}
	return &Youngest{k: k, logger: logger}, nil
}

// K returns the selection size.
func (y *Youngest) K() int {
	return y.k
}

// Select drains seq and returns up to k qualifying people, sorted by name.
// People without a valid US phone number, or with a non-positive age, are
// skipped with a warning. Ties in age keep arrival order.
func (y *Youngest) Select(seq iter.Seq[people.Person]) []people.Person {
	top := make([]people.Person, 0, y.k+1)
	seen := 0

	for person := range seq {
		seen++
		if !y.qualifies(person) {
			continue
		}

		// Append, re-sort and truncate on every candidate: O(n * k log k).
		// Fine for small k; a bounded max-heap would be O(n log k).
		top = append(top, person)
		slices.SortStableFunc(top, func(a, b people.Person) int {
			return a.Age - b.Age
		})
		if len(top) > y.k {
			top = top[:y.k]
		}
	}

	slices.SortStableFunc(top, func(a, b people.Person) int {
		return strings.Compare(a.Name, b.Name)
	})

	selectedTotal.Add(float64(len(top)))
	y.logger.Debug().
		Int("seen", seen).
		Int("selected", len(top)).
		Int("k", y.k).
		Msg("Selection complete")

	return top
}

func (y *Youngest) qualifies(p people.Person) bool {
	switch {
	case !p.HasPhone():
		skippedTotal.WithLabelValues(reasonNoPhone).Inc()
		y.logger.Warn().
			Int64("id", int64(p.ID)).
			Str("name", p.Name).
			Msg("Skipping person without phone number")
		return false
	case !IsUSPhoneNumber(p.PhoneNumber):
		skippedTotal.WithLabelValues(reasonInvalidPhone).Inc()
		y.logger.Warn().
			Int64("id", int64(p.ID)).
			Str("name", p.Name).
			Str("number", p.PhoneNumber).
			Msg("Skipping person with invalid US phone number")
		return false
	case p.Age <= 0:
		skippedTotal.WithLabelValues(reasonInvalidAge).Inc()
		y.logger.Warn().
			Int64("id", int64(p.ID)).
			Str("name", p.Name).
			Int("age", p.Age).
			Msg("Skipping person with invalid age")
		return false
	}
	return true
}
