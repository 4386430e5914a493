package runtime

import (
	"chat-exchange/contract"
	"chat-exchange/domain"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

var _ contract.IRegistry = (*Registry)(nil)

// Registry is the live set of connected peers.
// It is the only state shared between connections; no I/O happens while its lock is held.
type Registry struct {
	mu      sync.RWMutex
	log     *slog.Logger
	names   contract.NameGenerator
	peers   map[uuid.UUID]*domain.Peer
	byName  map[string]uuid.UUID
	ordered []uuid.UUID // admission order, used for stable snapshots
}

func NewRegistry(log *slog.Logger, names contract.NameGenerator) *Registry {
	return &Registry{
		log:    log,
		names:  names,
		peers:  make(map[uuid.UUID]*domain.Peer),
		byName: make(map[string]uuid.UUID),
	}
}

// Admit registers a connection and assigns it a unique display name.
func (r *Registry) Admit(conn domain.Conn) *domain.Peer {
	base := r.names.Generate()
	peer := &domain.Peer{
		ID:   uuid.New(),
		Addr: conn.RemoteAddr(),
		Conn: conn,
	}

	r.mu.Lock()
	peer.Name = r.uniqueName(base)
	r.peers[peer.ID] = peer
	r.byName[peer.Name] = peer.ID
	r.ordered = append(r.ordered, peer.ID)
	size := len(r.peers)
	r.mu.Unlock()

	r.log.Info(fmt.Sprintf("%s connects", peer.Addr), "peer", peer.Name, "peers", size)
	return peer
}

// uniqueName must be called with the write lock held.
func (r *Registry) uniqueName(base string) string {
	name := base
	for i := 2; ; i++ {
		if _, taken := r.byName[name]; !taken {
			return name
		}
		name = fmt.Sprintf("%s #%d", base, i)
	}
}

// Remove unregisters a peer. Removing an unknown peer is a no-op.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	peer, ok := r.peers[id]
	if ok {
		delete(r.peers, id)
		delete(r.byName, peer.Name)
		r.ordered = lo.Without(r.ordered, id)
	}
	size := len(r.peers)
	r.mu.Unlock()

	if ok {
		r.log.Info(fmt.Sprintf("%s disconnects", peer.Addr), "peer", peer.Name, "peers", size)
	}
}

// Snapshot returns the peers connected at call time, in admission order.
// The returned slice is owned by the caller.
func (r *Registry) Snapshot() []*domain.Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Map(r.ordered, func(id uuid.UUID, _ int) *domain.Peer {
		return r.peers[id]
	})
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}
