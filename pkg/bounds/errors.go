package bounds

import "errors"

// ErrInvalidBounds is returned when lo >= hi or either side is not finite
var ErrInvalidBounds = errors.New("bounds: lo must be finite and strictly less than hi")
