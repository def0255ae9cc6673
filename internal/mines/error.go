package mines

import "errors"

var (
	ErrInvalidDimensions      = errors.New("invalid dimensions")
	ErrInvalidMineCount       = errors.New("invalid mine count")
	ErrInsufficientCells      = errors.New("insufficient cells for mines")
	ErrOutOfBounds            = errors.New("position out of bounds")
	ErrIllegalStateTransition = errors.New("illegal state transition")
)
