package compare

import (
	"fmt"

	"github.com/banshee-data/rfi-flagger/internal/rfi/flagger"
)

func pair(a, b any) map[string]any {
	return map[string]any{"run1": a, "run2": b}
}

// DiffReports compares two executions and returns a map of differences.
// Per-pass entries are keyed by index and direction/length, e.g.
// "pass_03_V2", and only listed when the passes differ.
func DiffReports(r1, r2 *flagger.Report) map[string]any {
	diff := make(map[string]any)

	if r1.Width != r2.Width || r1.Height != r2.Height {
		diff["size"] = pair(fmt.Sprintf("%dx%d", r1.Width, r1.Height), fmt.Sprintf("%dx%d", r2.Width, r2.Height))
	}
	if r1.Distribution != r2.Distribution {
		diff["distribution"] = pair(r1.Distribution.String(), r2.Distribution.String())
	}
	if r1.NoiseScale != r2.NoiseScale {
		diff["noise_scale"] = pair(r1.NoiseScale, r2.NoiseScale)
	}
	if r1.InitialFlagged != r2.InitialFlagged {
		diff["initial_flagged"] = pair(r1.InitialFlagged, r2.InitialFlagged)
	}
	if r1.FinalFlagged != r2.FinalFlagged {
		diff["final_flagged"] = pair(r1.FinalFlagged, r2.FinalFlagged)
	}
	if len(r1.Passes) != len(r2.Passes) {
		diff["pass_count"] = pair(len(r1.Passes), len(r2.Passes))
	}

	passes := make(map[string]any)
	for i := 0; i < len(r1.Passes) && i < len(r2.Passes); i++ {
		p1, p2 := r1.Passes[i], r2.Passes[i]
		pd := make(map[string]any)
		if p1.Direction != p2.Direction || p1.Length != p2.Length {
			pd["operation"] = pair(p1.Label(), p2.Label())
		}
		if p1.Threshold != p2.Threshold {
			pd["threshold"] = pair(p1.Threshold, p2.Threshold)
		}
		if p1.NewlyFlagged != p2.NewlyFlagged {
			pd["newly_flagged"] = pair(p1.NewlyFlagged, p2.NewlyFlagged)
		}
		if len(pd) > 0 {
			passes[fmt.Sprintf("pass_%02d_%s", i, p1.Label())] = pd
		}
	}
	if len(passes) > 0 {
		diff["passes"] = passes
	}
	return diff
}
