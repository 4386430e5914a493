package runtime

import (
	"chat-exchange/domain"
	"chat-exchange/mocks"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newPeer(name string, conn domain.Conn) *domain.Peer {
	return &domain.Peer{ID: uuid.New(), Name: name, Addr: name + ":1", Conn: conn}
}

func TestHub_Broadcast_Empty_Is_Noop(t *testing.T) {
	req := require.New(t)
	hub := NewHub(discardLogger(), time.Second)

	report := hub.Broadcast(context.Background(), "hello", nil)

	req.Equal(domain.DeliveryReport{}, report)
}

func TestHub_Broadcast_All_Peers(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	hub := NewHub(discardLogger(), time.Second)

	var recipients []*domain.Peer
	for i := 0; i < 3; i++ {
		conn := mocks.NewMockConn(ctrl)
		conn.EXPECT().Send(gomock.Any(), "hello").Return(nil).Times(1)
		recipients = append(recipients, newPeer(fmt.Sprintf("peer-%d", i), conn))
	}

	report := hub.Broadcast(context.Background(), "hello", recipients)

	req.Equal(domain.DeliveryReport{Attempted: 3, Delivered: 3, Failed: 0}, report)
}

func TestHub_Broadcast_Failure_Is_Isolated(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	hub := NewHub(discardLogger(), time.Second)

	// Given a peer disconnected mid-broadcast
	gone := mocks.NewMockConn(ctrl)
	gone.EXPECT().Send(gomock.Any(), "hello").Return(fmt.Errorf("websocket: close sent")).Times(1)
	alive1 := mocks.NewMockConn(ctrl)
	alive1.EXPECT().Send(gomock.Any(), "hello").Return(nil).Times(1)
	alive2 := mocks.NewMockConn(ctrl)
	alive2.EXPECT().Send(gomock.Any(), "hello").Return(nil).Times(1)

	// When a message is broadcast
	report := hub.Broadcast(context.Background(), "hello", []*domain.Peer{
		newPeer("alive1", alive1), newPeer("gone", gone), newPeer("alive2", alive2),
	})

	// Then the remaining peers still receive it
	req.Equal(domain.DeliveryReport{Attempted: 3, Delivered: 2, Failed: 1}, report)
}

func TestHub_Broadcast_Slow_Peer_Times_Out(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	hub := NewHub(discardLogger(), 30*time.Millisecond)

	slow := mocks.NewMockConn(ctrl)
	slow.EXPECT().Send(gomock.Any(), "hello").DoAndReturn(
		func(ctx context.Context, _ string) error {
			<-ctx.Done()     // Waiting for the delivery deadline
			return ctx.Err() // Sending back "context deadline exceeded"
		}).Times(1)
	fast := mocks.NewMockConn(ctrl)
	fast.EXPECT().Send(gomock.Any(), "hello").Return(nil).Times(1)

	start := time.Now()
	report := hub.Broadcast(context.Background(), "hello", []*domain.Peer{newPeer("slow", slow), newPeer("fast", fast)})

	req.Equal(1, report.Delivered)
	req.Equal(1, report.Failed)
	req.Less(time.Since(start), time.Second)
}

func TestHub_Broadcast_Panicking_Conn(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	hub := NewHub(discardLogger(), time.Second)

	broken := mocks.NewMockConn(ctrl)
	broken.EXPECT().Send(gomock.Any(), "hello").DoAndReturn(
		func(context.Context, string) error { panic("boom") }).Times(1)
	ok := mocks.NewMockConn(ctrl)
	ok.EXPECT().Send(gomock.Any(), "hello").Return(nil).Times(1)

	report := hub.Broadcast(context.Background(), "hello", []*domain.Peer{newPeer("broken", broken), newPeer("ok", ok)})

	req.Equal(domain.DeliveryReport{Attempted: 2, Delivered: 1, Failed: 1}, report)
}
