// Package grid holds the dense 2D containers the flagging engine works on.
//
// Image stores float32 samples and Mask stores boolean flags. Both are
// addressed as (x, y) where x is the time-like axis and y the
// frequency-like axis. Rows are stored contiguously with an explicit stride
// that is rounded up to a multiple of LaneAlign, so lane-parallel code can
// always read LaneAlign adjacent values of a row without bounds juggling.
package grid
