package game

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillRow(b *Board, y int, c Cell, skip ...int) {
	skipped := make(map[int]bool, len(skip))
	for _, x := range skip {
		skipped[x] = true
	}
	for x := 0; x < b.Width(); x++ {
		if !skipped[x] {
			b.cells[y][x] = c
		}
	}
}

func emptyGrid(w, h int) [][]Cell {
	return NewBoard(w, h).copyCells()
}

func TestAtOutsideBoard(t *testing.T) {
	b := NewBoard(10, 20)
	fillRow(b, 0, Color1)
	fillRow(b, 19, Color2)

	for _, pos := range []Position{{-1, 0}, {10, 0}, {0, -1}, {0, 20}, {-5, -5}, {100, 100}} {
		assert.Equal(t, OutOfBounds, b.At(pos.X, pos.Y), "At(%d,%d)", pos.X, pos.Y)
	}
	assert.Equal(t, Color1, b.At(0, 0))
	assert.Equal(t, Color2, b.At(9, 19))
}

func TestCollidesIsPure(t *testing.T) {
	b := NewBoard(10, 20)
	p := &Piece{shape: T, offset: Position{X: 3, Y: 18}, color: Color0}

	before := b.copyCells()
	first := b.Collides(p)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, b.Collides(p))
	}
	assert.Empty(t, cmp.Diff(before, b.copyCells()))
	assert.Equal(t, Position{X: 3, Y: 18}, p.Offset())
}

func TestCollides(t *testing.T) {
	b := NewBoard(10, 20)
	b.cells[10][4] = Color2

	tests := []struct {
		desc  string
		piece Piece
		want  bool
	}{
		{desc: "free at spawn", piece: Piece{shape: T, offset: Position{X: 3}}, want: false},
		{desc: "past the left wall", piece: Piece{shape: T, offset: Position{X: -1}}, want: true},
		{desc: "empty mask column outside the wall", piece: Piece{shape: I, rotation: R1, offset: Position{X: -2}}, want: false},
		{desc: "past the right wall", piece: Piece{shape: O, offset: Position{X: 8}}, want: true},
		{desc: "past the floor", piece: Piece{shape: T, offset: Position{X: 3, Y: 19}}, want: true},
		{desc: "on a locked cell", piece: Piece{shape: O, offset: Position{X: 3, Y: 8}}, want: true},
		{desc: "next to a locked cell", piece: Piece{shape: O, offset: Position{X: 4, Y: 8}}, want: false},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			p := test.piece
			assert.Equal(t, test.want, b.Collides(&p))
		})
	}
}

func TestFreezeThenCollides(t *testing.T) {
	b := NewBoard(10, 20)
	p := &Piece{shape: S, offset: Position{X: 3, Y: 10}, color: Color4}
	require.False(t, b.Collides(p))

	b.Freeze(p)
	assert.Equal(t, Color4, b.At(4, 10))
	assert.Equal(t, Color4, b.At(5, 10))
	assert.Equal(t, Color4, b.At(3, 11))
	assert.Equal(t, Color4, b.At(4, 11))
	assert.Equal(t, Empty, b.At(3, 10))

	fresh := &Piece{shape: S, offset: Position{X: 3, Y: 10}, color: Color1}
	assert.True(t, b.Collides(fresh))
}

func TestClearFullRowsOnEmptyBoard(t *testing.T) {
	b := NewBoard(10, 20)
	assert.Equal(t, 0, b.ClearFullRows())
	if diff := cmp.Diff(emptyGrid(10, 20), b.copyCells()); diff != "" {
		t.Errorf("board changed (-want +got):\n%s", diff)
	}
}

func TestClearFullRowsShiftsDown(t *testing.T) {
	b := NewBoard(10, 20)
	fillRow(b, 19, Color5, 0)
	b.cells[10][5] = Color4

	// Vertical I in column 0 resting on the floor.
	p := &Piece{shape: I, rotation: R3, offset: Position{X: -1, Y: 16}, color: Color0}
	require.False(t, b.Collides(p))
	b.Freeze(p)

	assert.Equal(t, 1, b.ClearFullRows())

	want := emptyGrid(10, 20)
	want[11][5] = Color4
	want[17][0] = Color0
	want[18][0] = Color0
	want[19][0] = Color0
	if diff := cmp.Diff(want, b.copyCells()); diff != "" {
		t.Errorf("ClearFullRows() mismatch (-want +got):\n%s", diff)
	}
}

func TestClearFullRowsSeparatedRows(t *testing.T) {
	b := NewBoard(4, 6)
	fillRow(b, 1, Color0)
	fillRow(b, 2, Color1, 3)
	fillRow(b, 3, Color2)
	fillRow(b, 5, Color3)
	b.cells[4][0] = Color6

	assert.Equal(t, 3, b.ClearFullRows())

	want := emptyGrid(4, 6)
	want[4] = []Cell{Color1, Color1, Color1, Empty}
	want[5] = []Cell{Color6, Empty, Empty, Empty}
	if diff := cmp.Diff(want, b.copyCells()); diff != "" {
		t.Errorf("ClearFullRows() mismatch (-want +got):\n%s", diff)
	}
}

func TestBoardClear(t *testing.T) {
	b := NewBoard(10, 20)
	fillRow(b, 3, Color3)
	fillRow(b, 19, Color7, 2)
	b.Clear()
	assert.Empty(t, cmp.Diff(emptyGrid(10, 20), b.copyCells()))
	assert.Equal(t, 10, b.Width())
	assert.Equal(t, 20, b.Height())
}

func TestStatsRecord(t *testing.T) {
	tests := []struct {
		rows int
		want Stats
	}{
		{rows: 0, want: Stats{}},
		{rows: 1, want: Stats{Cleared: 1, OneLine: 1}},
		{rows: 2, want: Stats{Cleared: 2, TwoLine: 1}},
		{rows: 3, want: Stats{Cleared: 3, ThreeLine: 1}},
		{rows: 4, want: Stats{Cleared: 4, FourLine: 1}},
	}
	for _, test := range tests {
		var s Stats
		s.Record(test.rows)
		assert.Equal(t, test.want, s, "Record(%d)", test.rows)
	}

	var s Stats
	assert.Panics(t, func() { s.Record(5) })
	assert.Panics(t, func() { s.Record(-1) })

	s = Stats{Cleared: 9, OneLine: 1, FourLine: 2}
	s.Reset()
	assert.Equal(t, Stats{}, s)
}
