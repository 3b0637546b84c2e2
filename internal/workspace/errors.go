package workspace

import "errors"

// ErrUnknownStructure is returned when an id is not in the loaded collection.
var ErrUnknownStructure = errors.New("unknown structure")
