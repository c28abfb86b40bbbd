package runtime

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNumberStringRoundTrip(t *testing.T) {
	for _, x := range []float64{-1e6, -1, -0.5, 0, 0.5, 1, 1e6} {
		s := NumberToString(x)
		require.Equal(t, x, StringToNumber(s))
	}
}

func TestNumberToStringTrailingZero(t *testing.T) {
	require.Equal(t, "42.0", FormatNumber(42))
	require.Equal(t, "-1.0", FormatNumber(-1))
}

func TestStringToNumberNaNOnFailure(t *testing.T) {
	require.True(t, math.IsNaN(StringToNumber(NewString("not a number"))))
}

func TestStringFind(t *testing.T) {
	hay := NewString("hello world")
	needle := NewString("world")
	require.EqualValues(t, 6, hay.Find(needle, 0))
	require.EqualValues(t, -1, hay.Find(NewString("xyz"), 0))
}

func TestStringConcatAndCompare(t *testing.T) {
	a := NewString("foo")
	b := NewString("bar")
	require.Equal(t, "foobar", a.Concat(b).text())
	require.True(t, a.Compare(b) > 0)
	require.True(t, a.Equals(NewString("foo")))
}

func TestCharAtReadsByteAtIndex(t *testing.T) {
	s := NewString("hello")
	require.EqualValues(t, 'h', s.CharAt(0))
	require.EqualValues(t, 'o', s.CharAt(4))
}

func TestCharAtOutOfBoundsReturnsZeroAndDiagnoses(t *testing.T) {
	s := NewString("hi")
	d := &CollectingDiagnostics{}
	s.Diags = d
	require.EqualValues(t, 0, s.CharAt(-1))
	require.EqualValues(t, 0, s.CharAt(2))
	require.Len(t, d.Messages, 2)
}

func TestCharAtOnNilIsNoOp(t *testing.T) {
	var s *String
	require.NotPanics(t, func() {
		require.EqualValues(t, 0, s.CharAt(0))
	})
}

func TestCharClassifiers(t *testing.T) {
	require.True(t, IsDigit('5'))
	require.False(t, IsDigit('a'))
	require.True(t, IsAlpha('a'))
	require.True(t, IsAlnum('9'))
	require.True(t, IsWhitespace(' '))
	require.True(t, IsNewline('\n'))
}
