package commands

import (
	"fmt"
)

// ErrArgs means the arguments given to a command were invalid.
type ErrArgs struct {
	Err error
}

func (err ErrArgs) Error() string {
	return fmt.Sprintf("invalid arguments: %v", err.Err)
}

func (err ErrArgs) Unwrap() error {
	return err.Err
}
