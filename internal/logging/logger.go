// Package logging constructs the process-wide structured logger.
package logging

import (
	"github.com/hashicorp/go-hclog"
)

// New returns a named hclog logger at the given level. Unknown level names
// fall back to info.
func New(name, level string) hclog.Logger {
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		lvl = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      lvl,
		JSONFormat: true,
	})
}
