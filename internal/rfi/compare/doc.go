// Package compare measures flagging implementations against each other and
// against ground truth.
//
// The Harness runs every tier the CPU supports on the same input for every
// window length and direction and reports per-run disagreement with the
// reference tier along with timing. ScoreMask rates a mask against a
// ground-truth mask, and DiffReports lists where two executions differ.
package compare
