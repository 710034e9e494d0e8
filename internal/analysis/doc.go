// Package analysis derives per-particle diagnostics from tracked turns.
//
//   - [Tune]: fractional betatron tune from the spectrum of x̂
//   - [Diagnose]: survival, peak amplitude, tune and action of each
//     particle in a sampled cloud
//
// A particle deep inside the stable triangle oscillates at the machine
// tune with a nearly constant action. Close to the separatrix the tune is
// pulled toward 1/3 and the action spread grows.
package analysis
