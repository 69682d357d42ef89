package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/Fullex26/failsafe-relay/internal/config"
	"github.com/Fullex26/failsafe-relay/internal/eventbus"
)

// Source is the interface all inbound plugin-message channels implement
type Source interface {
	// Name returns the source identifier
	Name() string
	// Start begins receiving. Blocks until context is cancelled.
	Start(ctx context.Context) error
	// Stop gracefully stops the source
	Stop() error
}

// Base provides common fields for all sources
type Base struct {
	Cfg *config.Config
	Bus *eventbus.Bus
}

// New returns the source selected by cfg.Source.Type
func New(cfg *config.Config, bus *eventbus.Bus) (Source, error) {
	switch strings.ToLower(cfg.Source.Type) {
	case config.SourceOctoPrint:
		return NewOctoPrint(cfg, bus), nil
	case config.SourceNATS:
		return NewNATS(cfg, bus), nil
	}
	return nil, fmt.Errorf("unknown source type %q", cfg.Source.Type)
}
