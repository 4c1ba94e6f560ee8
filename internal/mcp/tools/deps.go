package tools

import (
	"os"

	"github.com/usestring/pairdiff/internal/config"
	"github.com/usestring/pairdiff/internal/engine"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Engine *engine.Engine
	Config *config.Config

	// LookupEnv resolves $VAR references in tool input. Defaults to
	// os.LookupEnv when nil. Only names allowed by Config.MCPEnvAllow are
	// looked up; without a Config nothing is.
	LookupEnv func(string) (string, bool)
}

// lookupEnv returns the lookup used for tool input. A variable outside the
// allowlist reads as unset, so callers cannot tell it apart from a missing one.
func (d *Deps) lookupEnv() func(string) (string, bool) {
	lookup := d.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return func(name string) (string, bool) {
		if d.Config == nil || !d.Config.EnvAllowed(name) {
			return "", false
		}
		return lookup(name)
	}
}
