// Package lattice defines the voxel grids handled by volseg and the integer box
// algebra used to crop them.
//
// A Grid stores one set id per voxel in a flat buffer whose layout is described
// by a Space (dimensions plus slowest-to-fastest axis order). Boxes follow the
// [Min, Max) convention on every axis. Fractional boxes, as used by spacegroup
// transforms, are gonum r3.Box values in [0,1]^3 relative to a reference box.
//
//	g, err := lattice.NewGrid([3]int{64, 64, 64}, lattice.DefaultAxisOrder, data,
//	    &lattice.SpacegroupTransform{FractionalBox: r3.Box{Max: r3.Vec{X: 1, Y: 1, Z: 1}}})
//
// Grids can be snapshotted with EncodeGrid and restored with DecodeGrid.
package lattice
