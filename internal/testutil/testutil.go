// Package testutil provides shared test utilities and fixtures.
//
// This package centralises mask and image helpers used by the flagging
// tests so expected patterns can be written as text.
package testutil

import (
	"strings"
	"testing"

	"github.com/banshee-data/rfi-flagger/internal/grid"
)

// Flag and Clear are the characters used by MaskFromRows and MaskString.
const (
	Flag  = 'X'
	Clear = '.'
)

// MaskFromRows builds a mask from rows of text, where 'X' marks a flagged
// cell and any other character a clear one. All rows must be equal length.
func MaskFromRows(rows ...string) *grid.Mask {
	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}
	m := grid.NewMask(width, len(rows))
	for y, row := range rows {
		if len(row) != width {
			panic("testutil: ragged mask rows")
		}
		for x := 0; x < width; x++ {
			if row[x] == Flag {
				m.SetValue(x, y, true)
			}
		}
	}
	return m
}

// MaskString renders a mask one row per line.
func MaskString(m *grid.Mask) string {
	var b strings.Builder
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if m.Value(x, y) {
				b.WriteByte(Flag)
			} else {
				b.WriteByte(Clear)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// ImageFromRows builds an image from row slices.
func ImageFromRows(rows ...[]float32) *grid.Image {
	img, err := grid.NewImageFromRows(rows)
	if err != nil {
		panic("testutil: " + err.Error())
	}
	return img
}

// AssertMaskEqual fails the test when the masks differ in size or content,
// reporting the first differing cell and both renderings.
func AssertMaskEqual(t testing.TB, got, want *grid.Mask) {
	t.Helper()
	if got.Width() != want.Width() || got.Height() != want.Height() {
		t.Fatalf("mask size = %dx%d, want %dx%d", got.Width(), got.Height(), want.Width(), want.Height())
	}
	for y := 0; y < want.Height(); y++ {
		for x := 0; x < want.Width(); x++ {
			if got.Value(x, y) != want.Value(x, y) {
				t.Errorf("mask differs at (%d,%d): got %v, want %v\ngot:\n%swant:\n%s",
					x, y, got.Value(x, y), want.Value(x, y), MaskString(got), MaskString(want))
				return
			}
		}
	}
}

// AssertSubset fails the test when a cell set in sub is clear in super.
func AssertSubset(t testing.TB, sub, super *grid.Mask) {
	t.Helper()
	for y := 0; y < sub.Height(); y++ {
		for x := 0; x < sub.Width(); x++ {
			if sub.Value(x, y) && !super.Value(x, y) {
				t.Errorf("cell (%d,%d) set in subset but clear in superset", x, y)
				return
			}
		}
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
