package config

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/domino14/lineup/heuristic"
	"github.com/domino14/lineup/search"
)

// NewEvaluator builds the configured evaluator, wrapped in a score cache
// when a cache fraction is set and the evaluator allows it.
func (s *SearchConfig) NewEvaluator() (heuristic.Evaluator, error) {
	ev, err := heuristic.New(s.Heuristic)
	if err != nil {
		return nil, err
	}
	if s.EvalCacheFraction <= 0 {
		return ev, nil
	}
	cached, err := heuristic.NewCached(ev, s.EvalCacheFraction, 0)
	if errors.Is(err, heuristic.ErrNotCacheable) {
		log.Warn().Str("evaluator", ev.Type()).Msg("evaluator-not-cacheable")
		return ev, nil
	} else if err != nil {
		return nil, err
	}
	return cached, nil
}

// NewEngine builds the configured search algorithm.
func (s *SearchConfig) NewEngine(opts ...search.Option) (search.Algorithm, error) {
	ev, err := s.NewEvaluator()
	if err != nil {
		return nil, err
	}
	return search.New(s.Algorithm, ev, opts...)
}
