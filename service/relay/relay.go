// Package relay mirrors every outbound fan-out event onto a NATS
// subject so out-of-process consumers (push notifications, audit) can
// follow the event stream. Delivery is at-most-effort: publish errors
// are logged and never abort the gateway's response path.
package relay

import (
	"encoding/json"
	"strings"
	"time"

	"ChatHub/logger"
	"ChatHub/tools/safe"

	"github.com/nats-io/nats.go"
)

type Config struct {
	URL     string
	Name    string
	Subject string // e.g. chathub.events
}

type Relay struct {
	nc      *nats.Conn
	subject string
}

// New connects to NATS. A nil *Relay is valid and publishes nothing,
// so the gateway runs unchanged with the relay disabled.
func New(cfg Config) (*Relay, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(500 * time.Millisecond),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(3 * time.Second),
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, err
	}
	return &Relay{nc: nc, subject: cfg.Subject}, nil
}

// Publish spawns the marshal+publish so the caller never blocks on the
// broker. Failures are logged only.
func (r *Relay) Publish(event string, payload any) {
	if r == nil || r.nc == nil {
		return
	}
	safe.Go(func() {
		data, err := json.Marshal(map[string]any{
			"event":   event,
			"payload": payload,
			"ts":      time.Now().UnixMilli(),
		})
		if err != nil {
			logger.Errorf("[relay] marshal event=%s err=%v", event, err)
			return
		}
		if err := r.nc.Publish(r.subject+"."+strings.ReplaceAll(event, ":", "."), data); err != nil {
			logger.Errorf("[relay] publish event=%s err=%v", event, err)
		}
	})
}

func (r *Relay) Close() {
	if r != nil && r.nc != nil {
		r.nc.Drain()
	}
}
