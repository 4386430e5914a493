//go:generate go run go.uber.org/mock/mockgen -source=participant.go -destination=../mocks/mock_participant.go -package=mocks

// Package domain contains core concepts of the chat system.
// This file defines Peer entities and the transport they are reached through.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"context"

	"github.com/google/uuid"
)

// Conn is the bidirectional text connection of a single peer.
// Implementations must be safe for concurrent Send/Ping/Close calls.
type Conn interface {
	Send(ctx context.Context, message string) error
	Ping(ctx context.Context) error
	Close() error
	RemoteAddr() string
}

// Peer is one connected chat client, owned by the registry for its connected lifetime.
type Peer struct {
	ID   uuid.UUID
	Name string
	Addr string
	Conn Conn
}
