package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/require"
)

type frame struct {
	kind int
	data []byte
}

// fakeConn satisfies wsConn without a network.
type fakeConn struct {
	mu     sync.Mutex
	frames []frame
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	<-c.closed
	return 0, nil, errors.New("connection closed")
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	select {
	case <-c.closed:
		return errors.New("connection closed")
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, frame{kind: messageType, data: data})
	return nil
}

func (c *fakeConn) SetReadLimit(int64)                {}
func (c *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (c *fakeConn) SetPongHandler(func(string) error) {}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) received() []frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]frame, len(c.frames))
	copy(out, c.frames)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestBroadcastReachesSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("test")
	go h.Run(ctx)

	conn := newFakeConn()
	done := make(chan struct{})
	go func() {
		h.Serve(conn)
		close(done)
	}()
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	require.NoError(t, h.BroadcastJSON(map[string]string{"hello": "bin"}))
	h.BroadcastBinary([]byte{0xFF, 0xD8})

	waitFor(t, func() bool { return len(conn.received()) >= 2 })
	frames := conn.received()
	require.Equal(t, websocket.TextMessage, frames[0].kind)
	require.JSONEq(t, `{"hello":"bin"}`, string(frames[0].data))
	require.Equal(t, websocket.BinaryMessage, frames[1].kind)

	conn.Close()
	<-done
	waitFor(t, func() bool { return h.ClientCount() == 0 })
}

func TestBroadcastWithoutSubscribersIsSafe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("empty")
	go h.Run(ctx)

	for i := 0; i < 10; i++ {
		h.BroadcastBinary([]byte("frame"))
	}
	require.Equal(t, 0, h.ClientCount())
}

func TestShutdownClosesSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	h := New("shutdown")
	go h.Run(ctx)

	conn := newFakeConn()
	go h.Serve(conn)
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	cancel()
	waitFor(t, func() bool { return h.ClientCount() == 0 })
}

func TestBroadcastJSONRejectsUnmarshalable(t *testing.T) {
	h := New("bad")
	require.Error(t, h.BroadcastJSON(make(chan int)))
}
