// Package separatrix characterizes the stable region of a beam near a
// third-order resonance.
//
// A characterization run has four ordered stages:
//
//   - [Sample]: tracks a fan of offsets for a diagnostic point cloud
//   - [Locate]: bisection on the initial offset for the stability boundary,
//     using a fixed septum position as the instability criterion
//   - boundary analysis: [SeptumSlope], [SortByAngle], [FindFixedPoints]
//     on the trajectories just outside and just inside the boundary
//   - [StableArea]: the triangle spanned by the three fixed points in
//     normalized coordinates
//
// # Example
//
//	line := lattice.NewResonance()
//	c := separatrix.New(line, separatrix.DefaultConfig())
//	a, err := c.Run(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(a.Result.StableArea, a.Result.DpxDxAtSeptum)
//
// # Failure modes
//
// Every failure is returned to the caller; nothing is retried since
// tracking is deterministic. Use errors.Is with [ErrNotConverged],
// [ErrBracket], [ErrFixedPointNotFound], [ErrSeptumWindow] and
// errors.As with [TrackingError] / [FixedPointError].
package separatrix
