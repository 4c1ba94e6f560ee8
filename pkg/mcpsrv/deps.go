package mcpsrv

import (
	"github.com/usestring/pairdiff/internal/config"
	"github.com/usestring/pairdiff/internal/engine"
)

// Deps contains all dependencies available to custom tools.
// Custom tools share the engine, and so the cache, with the builtin tools.
type Deps struct {
	Engine *engine.Engine
	Config *config.Config
}
