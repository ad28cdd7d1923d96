package feature

import "errors"

// ErrShapeMismatch signals that an assembled block disagrees with the declared
// feature matrix shape. A correct caller never sees it.
var ErrShapeMismatch = errors.New("feature: assembled block does not match feature matrix shape")
