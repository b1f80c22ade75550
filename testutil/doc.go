// Package testutil provides testing utilities for volseg.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random lattices and set/segment tables,
// and computing ground-truth bounding boxes and masks by brute force.
//
// # Random Lattices
//
//	rng := testutil.NewRNG(seed)
//	fx := rng.RandomLattice(testutil.LatticeSpec{Dims: [3]int{32, 32, 32}, Sets: 50, Segments: 10})
//
// # Ground Truth
//
//	boxes := testutil.BruteForceBoxes(fx.Grid, fx.Sets)
//	mask := testutil.BruteForceMask(fx.Grid, fx.Sets, segmentID, crop)
package testutil
