// Package sumthreshold implements the SumThreshold window test used to
// detect radio-frequency interference in time-frequency data.
//
// For every run of L consecutive samples along one axis, the mean of the
// samples that are not yet flagged is compared with a threshold; when its
// magnitude exceeds the threshold every sample of the run is flagged.
// Horizontal passes slide the window along x (time), vertical passes along
// y (frequency).
//
// The same test is available in several execution tiers: a scalar
// reference, lane-parallel tiers that process 4 or 8 neighbouring rows or
// columns together, and an incremental formulation that flags in place by
// remembering the last window that exceeded the threshold. All tiers take
// identical decisions; SelectTier picks the widest one the CPU supports.
//
// The Missing* functions implement the same test for data with structurally
// absent samples: missing samples never contribute to a window and are
// never flagged.
package sumthreshold
