// Package volseg extracts per-segment binary masks from a labeled 3D lattice.
//
// A lattice stores one set id per voxel. A many-to-many table assigns sets to
// segments, so one voxel may belong to several segments and one segment spans
// many sets. The engine answers two questions about it:
//
//   - where is a segment: its axis-aligned voxel bounding box
//   - what does it look like: a cropped 0/1 mask grid with a transform that
//     places the crop inside the source lattice
//
// Masks are the input of an iso-surface (marching cubes) consumer, which is
// why crops carry two empty layers below and one above the segment's box.
//
// # Quick Start
//
//	grid, _ := lattice.NewGrid(dims, lattice.DefaultAxisOrder, ids, transform)
//	eng, _ := volseg.NewFromColumns(grid, setIDs, segmentIDs)
//
//	box, ok := eng.BoundingBox(7)
//	vol, err := eng.Extract(ctx, 7)
//	if errors.Is(err, volseg.ErrSegmentNotFound) {
//	    // unknown segment
//	}
//
// Persist masks for the rendering layer:
//
//	store := blobstore.NewLocalStore("./masks")
//	name, _ := eng.Persist(ctx, store, 7)
//	vol, _ = volume.Load(ctx, store, name)
//
// # Concurrency
//
// Bounding boxes are computed by a single scan over the lattice the first time
// they are needed, or during New with WithEagerBoundingBoxes. ExtractMany runs
// extractions in parallel, bounded by a resource.Controller when one is set:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:         512 << 20,
//	    MaxConcurrentExtractions: 8,
//	    IOLimitBytesPerSec:       64 << 20,
//	})
//	eng, _ := volseg.New(grid, sets, volseg.WithResourceController(rc))
//	vols, _ := eng.ExtractMany(ctx, eng.Segments())
//
// # Observability
//
// Structured logging uses log/slog through Logger; operational counters go
// through a MetricsCollector. Both default to no-ops.
package volseg
