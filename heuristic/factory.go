package heuristic

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	LinePotentialName = "line-potential"
	LocalDensityName  = "local-density"
)

var (
	ErrUnknownEvaluator = errors.New("unknown evaluator")
	ErrBadWeight        = errors.New("bad evaluator weight")
)

// Names lists the evaluators New knows about.
func Names() []string {
	return []string{LinePotentialName, LocalDensityName}
}

func byName(name string) (Evaluator, error) {
	switch name {
	case LinePotentialName:
		return LinePotential{}, nil
	case LocalDensityName:
		return LocalDensity{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvaluator, name)
}

// New builds an evaluator from a description such as "line-potential" or
// "line-potential:1,local-density:0.25". A single name without a weight
// gives that evaluator itself; anything else gives a Combined evaluator.
func New(spec string) (Evaluator, error) {
	fields := strings.Split(spec, ",")
	if len(fields) == 1 && !strings.Contains(spec, ":") {
		return byName(strings.TrimSpace(spec))
	}
	parts := make([]Weighted, 0, len(fields))
	for _, f := range fields {
		name, weightStr, hasWeight := strings.Cut(strings.TrimSpace(f), ":")
		ev, err := byName(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		weight := 1.0
		if hasWeight {
			weight, err = strconv.ParseFloat(strings.TrimSpace(weightStr), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrBadWeight, f)
			}
		}
		parts = append(parts, Weighted{Evaluator: ev, Weight: weight})
	}
	return NewCombined(parts...), nil
}
