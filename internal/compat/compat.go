// Package compat decides which analyses may be combined. Split-by pairs two
// analysis types over the same entities; compare reruns one analysis type
// with a single entity changed. The two relations are kept apart.
package compat

import (
	"fmt"
	"strings"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/apperr"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/state"
)

// #region pair
// Pair is an unordered pair of analysis types.
type Pair struct {
	A, B state.DataType
}

// DefaultSplitPairs lists the analysis combinations the split-by views
// support.
func DefaultSplitPairs() []Pair {
	return []Pair{
		{state.Mutations, state.Loss},
		{state.Mutations, state.CNA},
		{state.GeneExpression, state.Mutations},
		{state.GeneExpression, state.CNA},
		{state.GeneExpression, state.Gain},
		{state.GeneExpression, state.Loss},
		{state.CNA, state.CNA},
		{state.Gain, state.Gain},
		{state.Loss, state.Loss},
	}
}

// ParsePairs converts config pairs like ["MUTATIONS", "LOSS"].
func ParsePairs(raw [][]string) ([]Pair, error) {
	pairs := make([]Pair, 0, len(raw))
	for _, r := range raw {
		if len(r) != 2 {
			return nil, fmt.Errorf("split pair %v: want 2 data types", r)
		}
		a, err := state.ParseDataType(r[0])
		if err != nil {
			return nil, err
		}
		b, err := state.ParseDataType(r[1])
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair{a, b})
	}
	return pairs, nil
}

// #endregion pair

// #region compare-table
// DefaultComparable lists, per analysis type, which single-entity changes a
// comparison can contrast.
func DefaultComparable() map[state.DataType][]state.Attribute {
	entities := []state.Attribute{state.AttrGene, state.AttrStudy}
	return map[state.DataType][]state.Attribute{
		state.Overview:       {state.AttrStudy},
		state.Mutations:      {state.AttrGene, state.AttrStudy, state.AttrDataSource},
		state.Indels:         {state.AttrGene, state.AttrStudy, state.AttrDataSource},
		state.SNV:            {state.AttrGene, state.AttrStudy, state.AttrDataSource},
		state.CNA:            entities,
		state.Gain:           entities,
		state.Loss:           entities,
		state.GeneExpression: entities,
	}
}

// #endregion compare-table

// #region checker
// Checker holds both relations.
type Checker struct {
	split   map[Pair]bool
	compare map[state.DataType]map[state.Attribute]bool
}

// NewChecker builds a checker. Nil arguments select the defaults.
func NewChecker(splitPairs []Pair, comparisons map[state.DataType][]state.Attribute) *Checker {
	if splitPairs == nil {
		splitPairs = DefaultSplitPairs()
	}
	if comparisons == nil {
		comparisons = DefaultComparable()
	}
	c := &Checker{
		split:   make(map[Pair]bool, len(splitPairs)),
		compare: make(map[state.DataType]map[state.Attribute]bool, len(comparisons)),
	}
	for _, p := range splitPairs {
		c.split[p] = true
	}
	for dt, attrs := range comparisons {
		set := make(map[state.Attribute]bool, len(attrs))
		for _, a := range attrs {
			set[a] = true
		}
		c.compare[dt] = set
	}
	return c
}

// Splittable reports whether a and b may be shown as a split-by view, in
// either order.
func (c *Checker) Splittable(a, b state.DataType) bool {
	return c.split[Pair{a, b}] || c.split[Pair{b, a}]
}

// CheckSplit returns an INVALID_STATE error when the pair is unsupported.
func (c *Checker) CheckSplit(a, b state.DataType) error {
	if a == "" {
		return apperr.New(apperr.KindInvalidState, "Ask for an analysis first, then I can split it by another one.")
	}
	if !c.Splittable(a, b) {
		return apperr.New(apperr.KindInvalidState,
			fmt.Sprintf("Sorry, I can't split %s by %s.", strings.ToLower(a.Label()), strings.ToLower(b.Label())))
	}
	return nil
}

// Comparable reports whether dataType can contrast the change named by d.
func (c *Checker) Comparable(dataType state.DataType, d state.StateDiff) bool {
	if !d.Present() || d.EntityType == state.AttrDataType {
		return false
	}
	return c.compare[dataType][d.EntityType]
}

// CheckCompare returns an INVALID_STATE error when the comparison is not
// meaningful.
func (c *Checker) CheckCompare(dataType state.DataType, d state.StateDiff) error {
	if dataType == "" {
		return apperr.New(apperr.KindInvalidState, "Ask for an analysis first, then I can compare it.")
	}
	if !d.Present() {
		return apperr.New(apperr.KindInvalidState, "Tell me which gene, cancer type or data source to compare against.")
	}
	if !c.Comparable(dataType, d) {
		return apperr.New(apperr.KindInvalidState,
			fmt.Sprintf("Sorry, I can't compare %s across that.", strings.ToLower(dataType.Label())))
	}
	return nil
}

// #endregion checker
