package sources

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	natspkg "github.com/nats-io/nats.go"

	"github.com/Fullex26/failsafe-relay/internal/config"
	"github.com/Fullex26/failsafe-relay/internal/eventbus"
	"github.com/Fullex26/failsafe-relay/pkg/models"
)

// NATS receives plugin messages published on a NATS subject, for setups
// where a bridge forwards the OctoPrint socket onto a broker.
type NATS struct {
	Base
	url     string
	subject string

	mu sync.Mutex
	nc *natspkg.Conn
}

func NewNATS(cfg *config.Config, bus *eventbus.Bus) *NATS {
	return &NATS{
		Base:    Base{Cfg: cfg, Bus: bus},
		url:     cfg.Source.NATS.URL,
		subject: cfg.Source.NATS.Subject,
	}
}

func (s *NATS) Name() string { return "nats" }

func (s *NATS) Start(ctx context.Context) error {
	slog.Info("starting nats source", "url", s.url, "subject", s.subject)

	nc, err := natspkg.Connect(s.url, natspkg.Name("failsafe-relay"))
	if err != nil {
		return fmt.Errorf("connecting to nats: %w", err)
	}
	s.mu.Lock()
	s.nc = nc
	s.mu.Unlock()
	defer s.Stop()

	// The client delivers a subscription's messages one at a time, in order.
	sub, err := nc.Subscribe(s.subject, func(msg *natspkg.Msg) {
		s.handleMessage(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", s.subject, err)
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	return nil
}

func (s *NATS) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nc != nil {
		s.nc.Close()
		s.nc = nil
	}
	return nil
}

func (s *NATS) handleMessage(data []byte) {
	event, err := models.DecodeInbound(data)
	if err != nil {
		slog.Warn("skipping malformed plugin message", "subject", s.subject, "error", err)
		return
	}
	s.Bus.Publish(event)
}
