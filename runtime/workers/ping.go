package workers

import (
	"chat-exchange/contract"
	"chat-exchange/domain"
	"context"
	"log/slog"
	"sync"
	"time"
)

// PingWorker keeps idle websocket peers alive and evicts the ones that stopped answering.
// Closing the connection makes the peer's read loop exit, which removes it from the registry.
type PingWorker struct {
	log      *slog.Logger
	registry contract.IRegistry
	interval time.Duration
	timeout  time.Duration
}

func NewPingWorker(log *slog.Logger, registry contract.IRegistry, interval, timeout time.Duration) *PingWorker {
	return &PingWorker{log: log, registry: registry, interval: interval, timeout: timeout}
}

func (w *PingWorker) Run(ctx context.Context) error {
	w.log.Info("Starting ping worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.pingAll(ctx)
		}
	}
}

func (w *PingWorker) pingAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, peer := range w.registry.Snapshot() {
		wg.Add(1)
		go func(peer *domain.Peer) {
			defer wg.Done()
			pingCtx, cancel := context.WithTimeout(ctx, w.timeout)
			defer cancel()
			if err := peer.Conn.Ping(pingCtx); err != nil {
				w.log.Debug("Ping failed, closing peer", "peer", peer.Name, "error", err)
				_ = peer.Conn.Close()
			}
		}(peer)
	}
	wg.Wait()
}
