package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHighscore_Beats(t *testing.T) {
	tests := []struct {
		row      *Highscore
		name     string
		score    int64
		expected bool
	}{
		{name: "no row", row: nil, score: 0, expected: true},
		{name: "greater score", row: &Highscore{Score: 100}, score: 150, expected: true},
		{name: "equal score is not new", row: &Highscore{Score: 100}, score: 100, expected: false},
		{name: "lower score", row: &Highscore{Score: 100}, score: 99, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.row.Beats(tt.score))
		})
	}
}

func TestCounterField_Add(t *testing.T) {
	c := CounterField{Total: 10}
	c.Add(3)
	c.Add(-1)

	assert.Equal(t, int64(12), c.Total)
	assert.Equal(t, int64(2), c.Delta)
}

func TestResource_Clone(t *testing.T) {
	original := &Resource{ID: "r1", Kind: ResourceKindLevel, Name: "castle", Content: []byte("tiles"), Revision: 3}
	clone := original.Clone()

	assert.Equal(t, original, clone)

	clone.Content[0] = 'T'
	assert.Equal(t, []byte("tiles"), original.Content)
	assert.False(t, original.SameContent(clone))
}

func TestDomain_Valid(t *testing.T) {
	for _, d := range Domains() {
		assert.True(t, d.Valid(), d)
	}
	assert.False(t, Domain("inventory").Valid())
}
