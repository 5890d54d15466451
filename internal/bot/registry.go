package bot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/relomove/leadbot/internal/models"
)

// Registry maps bot types to their handlers. Handlers are registered at
// startup; lookups after that are read-only.
type Registry struct {
	handlers map[models.BotType]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[models.BotType]Handler)}
}

// Register adds h under its own type, replacing any previous handler.
func (r *Registry) Register(h Handler) {
	r.handlers[h.Type()] = h
}

// Handler resolves a bot type. The error names the available types so a
// tenant misconfiguration is diagnosable from the log line alone.
func (r *Registry) Handler(botType models.BotType) (Handler, error) {
	h, ok := r.handlers[botType]
	if !ok {
		available := make([]string, 0, len(r.handlers))
		for t := range r.handlers {
			available = append(available, string(t))
		}
		sort.Strings(available)
		return nil, fmt.Errorf("%w: %q (available: %s)",
			models.ErrUnknownBotType, botType, strings.Join(available, ", "))
	}
	return h, nil
}
