package project

import (
	"errors"
	"fmt"
)

type InvalidReason int

const (
	ReasonEmptyCrateName InvalidReason = iota + 1
	ReasonMissingFile
	ReasonInvalidPath
)

// InvalidProjectError rejects a project before any compiler work starts.
type InvalidProjectError struct {
	Reason InvalidReason
	Crate  string
	Path   string
}

func (e *InvalidProjectError) Error() string {
	switch e.Reason {
	case ReasonEmptyCrateName:
		return "Main crate name cannot be empty."
	case ReasonMissingFile:
		return fmt.Sprintf("Missing required file `%s` in `%s` crate.", e.Path, e.Crate)
	case ReasonInvalidPath:
		return fmt.Sprintf("Invalid virtual path `%s` in `%s` crate.", e.Path, e.Crate)
	default:
		return "invalid project"
	}
}

// ErrContextConsumed is returned when a compilation context is driven twice.
var ErrContextConsumed = errors.New("compilation context already consumed")
