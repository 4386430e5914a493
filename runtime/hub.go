package runtime

import (
	"chat-exchange/contract"
	"chat-exchange/domain"
	"chat-exchange/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var _ contract.IBroadcaster = (*Hub)(nil)

// Hub delivers messages to a snapshot of peers.
//
// Every recipient gets its own goroutine and its own deadline, so a slow or
// broken peer neither delays nor aborts delivery to the others.
type Hub struct {
	log             *slog.Logger
	deliveryTimeout time.Duration
}

func NewHub(log *slog.Logger, deliveryTimeout time.Duration) *Hub {
	return &Hub{log: log, deliveryTimeout: deliveryTimeout}
}

// Broadcast sends message to every recipient and waits for all attempts to finish.
// Failures are logged and counted, never returned.
func (h *Hub) Broadcast(ctx context.Context, message string, recipients []*domain.Peer) domain.DeliveryReport {
	report := domain.DeliveryReport{Attempted: len(recipients)}
	if len(recipients) == 0 {
		return report
	}

	var delivered atomic.Int32
	var wg sync.WaitGroup
	for _, peer := range recipients {
		wg.Add(1)
		go func(p *domain.Peer) {
			defer wg.Done()
			if err := h.deliver(ctx, p, message); err != nil {
				h.log.Warn("Delivery failed", "peer", p.Name, "addr", p.Addr, "error", err)
				return
			}
			delivered.Add(1)
		}(peer)
	}
	wg.Wait()

	report.Delivered = int(delivered.Load())
	report.Failed = report.Attempted - report.Delivered
	return report
}

func (h *Hub) deliver(ctx context.Context, peer *domain.Peer, message string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrPeerClosed, r)
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, h.deliveryTimeout)
	defer cancel()
	return peer.Conn.Send(ctx, message)
}
