package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Deterministic(t *testing.T) {
	a := New(42)
	b := New(42)

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestIntN_Bounds(t *testing.T) {
	src := New(1)
	for i := 0; i < 1000; i++ {
		v := IntN(src, 7)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 7)
	}
}

func TestIntN_EdgeRounding(t *testing.T) {
	// A draw of nearly 1.0 must still land inside [0,n).
	src := NewSeq(0.9999999999999999)
	assert.Equal(t, 2, IntN(src, 3))
}

func TestBetween(t *testing.T) {
	tests := []struct {
		name     string
		draw     float64
		lo, hi   int
		expected int
	}{
		{"low draw hits lo", 0.0, 10, 20, 10},
		{"high draw hits hi", 0.999, 10, 20, 20},
		{"inverted range returns lo", 0.5, 20, 10, 20},
		{"equal bounds return lo", 0.5, 5, 5, 5},
		{"negative lo", 0.0, -10, 10, -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewSeq(tt.draw)
			assert.Equal(t, tt.expected, Between(src, tt.lo, tt.hi))
		})
	}
}

func TestChance(t *testing.T) {
	src := NewSeq(0.3, 0.7)
	assert.True(t, Chance(src, 0.5))
	assert.False(t, Chance(src, 0.5))
}

func TestPick(t *testing.T) {
	items := []string{"a", "b", "c"}

	assert.Equal(t, "a", Pick(NewSeq(0.0), items))
	assert.Equal(t, "c", Pick(NewSeq(0.99), items))
}

func TestSeq_WrapsAround(t *testing.T) {
	src := NewSeq(0.1, 0.2)

	assert.Equal(t, 0.1, src.Float64())
	assert.Equal(t, 0.2, src.Float64())
	assert.Equal(t, 0.1, src.Float64())
}

func TestSeq_EmptyDefaults(t *testing.T) {
	src := NewSeq()
	assert.Equal(t, 0.5, src.Float64())
}
