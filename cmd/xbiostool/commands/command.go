// Package commands declares the verb interface every xbiostool subcommand
// implements, plus the small helpers shared across them (key-file loading,
// error wrapping).
package commands

import (
	"github.com/jessevdk/go-flags"
)

// Command is a verb of "xbiostool <verb> ...".
type Command interface {
	flags.Commander

	// ShortDescription explains what this command does in one line.
	ShortDescription() string

	// LongDescription explains what this verb does, without a line limit.
	LongDescription() string
}
