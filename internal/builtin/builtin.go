// Package builtin wires the reference query language, pattern codec and
// matcher into one engine.Capabilities value.
package builtin

import (
	"github.com/roach88/varq/internal/engine"
	"github.com/roach88/varq/internal/matcher"
	"github.com/roach88/varq/internal/pattern"
	"github.com/roach88/varq/internal/vql"
)

// Capabilities returns the capabilities the varq binary ships with.
func Capabilities() engine.Capabilities {
	return engine.Capabilities{
		Parser:  vql.Parser{},
		Checker: vql.Checker{},
		Codec:   pattern.Codec{},
		Factory: matcher.Factory{},
	}
}
