// Package beam defines the contracts between the phase-space analysis and a
// particle tracking engine.
//
// The package is deliberately small:
//
//   - [Particles]: initial conditions handed to a tracker
//   - [TrackRecord]: turn-by-turn (x, px) history and survival state
//   - [Tracker]: advances particles for a number of turns
//   - [Line]: a tracker that can also report its linear optics
//   - [Twiss]: the optics snapshot, mapping physical to normalized coordinates
//
// # Example
//
//	line := lattice.NewResonance()
//	tw, _ := line.Twiss(ctx)
//	rec, _ := line.Track(ctx, beam.NewParticles(0.01, 0.02), 1000)
//	norm := tw.Normalize(rec)
//
// # Ownership
//
// Trackers never mutate the [Particles] they receive and always return a
// freshly allocated [TrackRecord]. Records are read-only once produced.
package beam
