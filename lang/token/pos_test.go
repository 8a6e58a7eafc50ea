package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakePosRoundTrip(t *testing.T) {
	cases := []struct{ line, col int }{
		{1, 1},
		{10, 5},
		{MaxLines, MaxCols},
		{42, 1},
	}
	for _, c := range cases {
		p := MakePos(c.line, c.col)
		gotLine, gotCol := p.LineCol()
		require.Equal(t, c.line, gotLine)
		require.Equal(t, c.col, gotCol)
		require.Equal(t, c.line, p.Line())
	}
}

func TestPosUnknown(t *testing.T) {
	require.True(t, Pos(0).Unknown())
	require.False(t, MakePos(1, 1).Unknown())
}
