package tour

import (
	"tourlab/internal/geom"
	"tourlab/internal/model"
)

const defaultPasses = 50

// improvement below this is treated as noise
const minGain = 1e-9

// TwoOptTour builds a nearest-neighbor tour and then applies 2-opt moves
// until a full sweep finds no shorter tour or the pass budget runs out.
// Each accepted move appends a step to the nearest-neighbor trace.
func (b *Builder) TwoOptTour(nodes model.NodeSet, opts Options) Trace {
	return twoOpt(nodes, opts, b.source(opts))
}

func twoOpt(nodes model.NodeSet, opts Options, rng Source) Trace {
	scale := opts.scale()
	trace := nearestNeighbor(nodes, scale, rng)
	final, ok := trace.Final()
	if !ok {
		return nil
	}
	passes := opts.Passes
	if passes <= 0 {
		passes = defaultPasses
	}

	best := final.Tour.Clone()
	bestLen := geom.PathLength(nodes, evalScale, best)
	n := len(best)
	for pass := 0; pass < passes; pass++ {
		improved := false
		for i := 1; i < n-2; i++ {
			for k := i + 1; k < n-1; k++ {
				cand := twoOptSwap(best, i, k)
				if l := geom.PathLength(nodes, evalScale, cand); l+minGain < bestLen {
					best, bestLen = cand, l
					improved = true
					trace = append(trace, newStep(best, final.Start, "2-opt", nodes, scale))
				}
			}
		}
		if !improved {
			break
		}
	}
	return trace
}

// twoOptSwap reverses t[i..k] into a new tour. The endpoints stay fixed so
// a closed tour stays closed.
func twoOptSwap(t Tour, i, k int) Tour {
	out := make(Tour, len(t))
	copy(out, t[:i])
	pos := i
	for j := k; j >= i; j-- {
		out[pos] = t[j]
		pos++
	}
	copy(out[pos:], t[k+1:])
	return out
}
