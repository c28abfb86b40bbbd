package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCellUpdateThenValueIsBitIdentical(t *testing.T) {
	c := NewCell(0)
	for _, v := range []float64{1.5, -2.25, 100, 0, 3.14159} {
		c.Update(v)
		require.Equal(t, v, c.Value())
	}
}

func TestCellHistorySizeGrowsThenClamps(t *testing.T) {
	c := NewCell(0)
	require.EqualValues(t, 1, c.historySize)
	for n := 1; n <= 150; n++ {
		c.Update(float64(n))
		if n+1 <= historyCap {
			require.EqualValues(t, n+1, c.historySize)
		} else {
			require.EqualValues(t, historyCap, c.historySize)
		}
	}
}

func TestCellHistoryIsFIFOBeyondCap(t *testing.T) {
	c := NewCell(0)
	for n := 1; n <= 120; n++ {
		c.Update(float64(n))
	}
	last5 := c.recentHistory(5)
	require.Equal(t, []float64{116, 117, 118, 119, 120}, last5)
}

func TestConvergedOnConstantSequence(t *testing.T) {
	c := NewCell(1.0)
	for i := 0; i < 6; i++ {
		c.Update(1.0)
	}
	require.True(t, Converged(c))
}

func TestConvergedOnSlowGeometricSequence(t *testing.T) {
	c := NewCell(1.0)
	v := 1.0
	for i := 0; i < 20; i++ {
		v *= 1 - 1e-7
		c.Update(v)
	}
	require.True(t, Converged(c))
}

func TestNotConvergedOnFastGeometricSequence(t *testing.T) {
	c := NewCell(1.0)
	v := 1.0
	for i := 0; i < 20; i++ {
		v *= 1 - 1e-3
		c.Update(v)
	}
	require.False(t, Converged(c))
}

func TestOscillatingOnAlternatingSequence(t *testing.T) {
	c := NewCell(0)
	seq := []float64{0, 1, 0, 1, 0, 1, 0, 1, 0, 1}
	for _, v := range seq {
		c.Update(v)
	}
	require.True(t, Oscillating(c))
}

func TestNotOscillatingOnMonotoneSequence(t *testing.T) {
	c := NewCell(0)
	for i := 1; i <= 10; i++ {
		c.Update(float64(i))
	}
	require.False(t, Oscillating(c))
}

func TestStableThreshold(t *testing.T) {
	c := NewCell(0)
	c.Update(0) // zero acceleration -> stability exp(0) = 1
	require.True(t, Stable(c))
}

func TestImproving(t *testing.T) {
	c := NewCell(10)
	c.Update(5) // gradient -5
	c.Update(3) // gradient -2, prevGradient -5: |−2| < |−5|
	require.True(t, Improving(c))
}

func TestDivergingOnLargeValue(t *testing.T) {
	c := NewCell(0)
	c.Update(2000)
	require.True(t, Diverging(c))
}

func TestCellUpdateOnNilIsNoOp(t *testing.T) {
	var c *Cell
	require.NotPanics(t, func() { c.Update(5) })
	require.Equal(t, 0.0, c.Value())
}
