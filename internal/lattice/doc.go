// Package lattice provides a parametric circular-machine model for tracking.
//
// [Resonance] is a one-turn map made of a thin sextupole kick followed by a
// linear betatron rotation close to the third-integer tune. It implements
// [beam.Line], so it can be handed directly to the separatrix analysis.
//
// Parameters can be changed at runtime through GetParams/SetParam:
//
//	line := lattice.NewResonance()
//	_ = line.SetParam("tune", 0.34)
//	tw, _ := line.Twiss(ctx)
package lattice
