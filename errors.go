package volseg

import (
	"errors"
	"fmt"

	"github.com/hupe1980/volseg/internal/segmentation"
	"github.com/hupe1980/volseg/lattice"
	"github.com/hupe1980/volseg/multimap"
	"github.com/hupe1980/volseg/volume"
)

var (
	// ErrSegmentNotFound is returned when a segment id has no entry in the
	// segment → set table.
	ErrSegmentNotFound = errors.New("segment not found")
	// ErrUnsupportedTransform is returned when a mask cannot be placed under
	// the lattice's transform kind.
	ErrUnsupportedTransform = errors.New("unsupported transform")
	// ErrMalformedInput is returned for inconsistent grids, tables or
	// persisted data.
	ErrMalformedInput = errors.New("malformed input")
)

// ErrSegmentMissing reports the id of a segment absent from the dataset.
//
// errors.Is(err, ErrSegmentNotFound) holds for it.
type ErrSegmentMissing struct {
	SegmentID uint32
	cause     error
}

func (e *ErrSegmentMissing) Error() string {
	return fmt.Sprintf("segment %d not found", e.SegmentID)
}

func (e *ErrSegmentMissing) Unwrap() []error { return []error{ErrSegmentNotFound, e.cause} }

// ErrColumnLengthMismatch reports set/segment columns of different length.
//
// errors.Is(err, ErrMalformedInput) holds for it.
type ErrColumnLengthMismatch struct {
	SetIDs     int
	SegmentIDs int
	cause      error
}

func (e *ErrColumnLengthMismatch) Error() string {
	return fmt.Sprintf("column length mismatch: %d set ids, %d segment ids", e.SetIDs, e.SegmentIDs)
}

func (e *ErrColumnLengthMismatch) Unwrap() []error { return []error{ErrMalformedInput, e.cause} }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var sm *segmentation.ErrSegmentMissing
	if errors.As(err, &sm) {
		return &ErrSegmentMissing{SegmentID: sm.SegmentID, cause: err}
	}
	if errors.Is(err, segmentation.ErrSegmentNotFound) {
		return fmt.Errorf("%w: %w", ErrSegmentNotFound, err)
	}
	if errors.Is(err, segmentation.ErrUnsupportedTransform) {
		return fmt.Errorf("%w: %w", ErrUnsupportedTransform, err)
	}

	var cl *multimap.ErrColumnLengthMismatch
	if errors.As(err, &cl) {
		return &ErrColumnLengthMismatch{SetIDs: cl.SetIDs, SegmentIDs: cl.SegmentIDs, cause: err}
	}
	if errors.Is(err, multimap.ErrMalformedInput) ||
		errors.Is(err, lattice.ErrMalformedInput) ||
		errors.Is(err, volume.ErrMalformedVolume) {
		return fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}

	return err
}
