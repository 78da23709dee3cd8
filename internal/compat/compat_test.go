package compat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/apperr"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/state"
)

func TestSplittableSymmetric(t *testing.T) {
	c := NewChecker(nil, nil)
	assert.True(t, c.Splittable(state.Mutations, state.Loss))
	assert.True(t, c.Splittable(state.Loss, state.Mutations))
	assert.True(t, c.Splittable(state.Mutations, state.GeneExpression))
	assert.True(t, c.Splittable(state.Gain, state.Gain))
	assert.True(t, c.Splittable(state.CNA, state.CNA))
}

func TestSplittableUnlisted(t *testing.T) {
	c := NewChecker(nil, nil)
	assert.False(t, c.Splittable(state.Mutations, state.Gain))
	assert.False(t, c.Splittable(state.Gain, state.Mutations))
	assert.False(t, c.Splittable(state.Overview, state.Overview))
}

func TestCheckSplit(t *testing.T) {
	c := NewChecker(nil, nil)
	assert.NoError(t, c.CheckSplit(state.Loss, state.Mutations))

	err := c.CheckSplit(state.Mutations, state.Gain)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	assert.Contains(t, apperr.Fallback(err), "mutations")

	err = c.CheckSplit("", state.Gain)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestCustomPairs(t *testing.T) {
	pairs, err := ParsePairs([][]string{{"MUTATIONS", "GAIN"}})
	require.NoError(t, err)
	c := NewChecker(pairs, nil)
	assert.True(t, c.Splittable(state.Gain, state.Mutations))
	assert.False(t, c.Splittable(state.Mutations, state.Loss))

	_, err = ParsePairs([][]string{{"MUTATIONS"}})
	assert.Error(t, err)
	_, err = ParsePairs([][]string{{"MUTATIONS", "FOO"}})
	assert.Error(t, err)
}

func TestComparable(t *testing.T) {
	c := NewChecker(nil, nil)
	study := state.StateDiff{EntityType: state.AttrStudy, EntityValue: "OV"}
	source := state.StateDiff{EntityType: state.AttrDataSource, EntityValue: "CLINVAR"}
	dtype := state.StateDiff{EntityType: state.AttrDataType, EntityValue: "CNA"}

	assert.True(t, c.Comparable(state.Mutations, study))
	assert.True(t, c.Comparable(state.Mutations, source))
	assert.False(t, c.Comparable(state.CNA, source))
	assert.False(t, c.Comparable(state.Mutations, dtype), "changing the analysis type is split-by, not compare")
	assert.False(t, c.Comparable(state.Mutations, state.StateDiff{}))
	assert.False(t, c.Comparable(state.GeneDefinition, study))
}

func TestCheckCompare(t *testing.T) {
	c := NewChecker(nil, nil)
	gene := state.StateDiff{EntityType: state.AttrGene, EntityValue: "KRAS"}

	assert.NoError(t, c.CheckCompare(state.CNA, gene))
	for _, tc := range []struct {
		dt state.DataType
		d  state.StateDiff
	}{
		{"", gene},
		{state.CNA, state.StateDiff{}},
		{state.Overview, gene},
	} {
		err := c.CheckCompare(tc.dt, tc.d)
		require.Error(t, err)
		assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	}
}

func TestRejectionPhrasesUseLowerCaseLabels(t *testing.T) {
	c := NewChecker(nil, nil)
	gene := state.StateDiff{EntityType: state.AttrGene, EntityValue: "KRAS"}

	err := c.CheckCompare(state.Overview, gene)
	assert.Equal(t, "Sorry, I can't compare overview across that.", apperr.Fallback(err))

	err = c.CheckSplit(state.Mutations, state.Gain)
	assert.Equal(t, "Sorry, I can't split mutations by gain.", apperr.Fallback(err))
}
