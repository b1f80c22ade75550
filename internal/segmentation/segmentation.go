// Package segmentation implements the lattice segmentation engine: bounding
// boxes per segment and cropped binary masks for a single segment.
package segmentation

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/volseg/lattice"
	"github.com/hupe1980/volseg/multimap"
)

var (
	// ErrSegmentNotFound is returned for segment ids without an inverse-map entry.
	ErrSegmentNotFound = errors.New("segment not found")
	// ErrUnsupportedTransform is returned when a mask cannot be placed under the grid's transform.
	ErrUnsupportedTransform = errors.New("unsupported transform")
)

// ErrSegmentMissing carries the id of a segment absent from the dataset.
type ErrSegmentMissing struct {
	SegmentID uint32
}

func (e *ErrSegmentMissing) Error() string {
	return fmt.Sprintf("segment %d not found", e.SegmentID)
}

// Unwrap makes errors.Is(err, ErrSegmentNotFound) hold.
func (e *ErrSegmentMissing) Unwrap() error { return ErrSegmentNotFound }

// ErrTransformKind reports the transform kind extraction cannot handle.
type ErrTransformKind struct {
	Kind lattice.TransformKind
}

func (e *ErrTransformKind) Error() string {
	return fmt.Sprintf("unsupported transform: %s", e.Kind)
}

// Unwrap makes errors.Is(err, ErrUnsupportedTransform) hold.
func (e *ErrTransformKind) Unwrap() error { return ErrUnsupportedTransform }

// Padding is the number of empty layers added around a segment's bounding box.
type Padding struct {
	Lower int
	Upper int
}

// DefaultPadding matches the margins the downstream marching-cubes consumer
// renders without boundary artifacts. The extra lower layer compensates for
// an off-by-one bias in that consumer whose cause is still open.
var DefaultPadding = Padding{Lower: 2, Upper: 1}

// Config tunes extraction.
type Config struct {
	Padding Padding
	// MeasuredStats replaces the nominal mask stats with the mask's real mean and sigma.
	MeasuredStats bool
}

// Segmentation owns one lattice and its set/segment multimaps.
//
// Bounding boxes are computed on first use and cached until Reset. Methods
// are safe for concurrent use as long as the grid is not mutated.
type Segmentation struct {
	grid     *lattice.Grid
	sets     *multimap.Multimap
	segments *multimap.Multimap
	setIndex *denseIndex
	cfg      Config

	mu    sync.Mutex
	boxes atomic.Pointer[Boxes]
}

// New builds a segmentation over grid. sets is the forward set → segment map.
func New(grid *lattice.Grid, sets *multimap.Multimap, cfg Config) (*Segmentation, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: missing grid", lattice.ErrMalformedInput)
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if len(grid.Data) != grid.Len() {
		return nil, fmt.Errorf("%w: data has %d voxels, dimensions %v need %d", lattice.ErrMalformedInput, len(grid.Data), grid.Dims, grid.Len())
	}
	if sets == nil {
		return nil, fmt.Errorf("%w: missing set multimap", multimap.ErrMalformedInput)
	}
	if cfg.Padding.Lower < 0 || cfg.Padding.Upper < 0 {
		return nil, fmt.Errorf("%w: negative padding %+v", lattice.ErrMalformedInput, cfg.Padding)
	}

	return &Segmentation{
		grid:     grid,
		sets:     sets,
		segments: sets.Invert(),
		setIndex: newDenseIndex(sets.Keys()),
		cfg:      cfg,
	}, nil
}

// Grid returns the source lattice.
func (s *Segmentation) Grid() *lattice.Grid { return s.grid }

// Sets returns the forward set → segment map.
func (s *Segmentation) Sets() *multimap.Multimap { return s.sets }

// Segments returns the inverse segment → set map.
func (s *Segmentation) Segments() *multimap.Multimap { return s.segments }

// Config returns the extraction settings.
func (s *Segmentation) Config() Config { return s.cfg }

// BoundingBoxes returns the segment boxes, scanning the grid on first call.
// The bool reports whether this call performed the scan.
func (s *Segmentation) BoundingBoxes() (*Boxes, bool) {
	if b := s.boxes.Load(); b != nil {
		return b, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b := s.boxes.Load(); b != nil {
		return b, false
	}
	b := computeBoxes(s.grid, s.setIndex, s.segments)
	s.boxes.Store(b)
	return b, true
}

// BoundingBox returns the box of seg; ok is false when seg is unknown.
func (s *Segmentation) BoundingBox(seg uint32) (lattice.Box, bool) {
	b, _ := s.BoundingBoxes()
	return b.Get(seg)
}

// VoxelCount returns how many voxels belong to seg.
func (s *Segmentation) VoxelCount(seg uint32) (int64, bool) {
	b, _ := s.BoundingBoxes()
	return b.VoxelCount(seg)
}

// Reset drops the cached boxes so the next access rescans the grid.
func (s *Segmentation) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boxes.Store(nil)
}
