package tensor

import "errors"

// ErrShapeMismatch reports data whose dimensions disagree with what the
// receiving layer or operation was configured for.
var ErrShapeMismatch = errors.New("shape mismatch")
