package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stompBroker - минимальный брокер для тестов: отвечает CONNECTED на
// CONNECT, запоминает SUBSCRIBE и умеет публиковать MESSAGE в подписки
type stompBroker struct {
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conn     *websocket.Conn
	subs     map[string]string // destination -> sub id
	connects int
}

func newStompBroker() *stompBroker {
	return &stompBroker{subs: map[string]string{}}
}

func (b *stompBroker) handler(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	b.mu.Lock()
	b.conn = conn
	b.mu.Unlock()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		f, err := ParseFrame(raw)
		if err != nil || f == nil {
			continue
		}
		switch f.Command {
		case CmdConnect:
			b.mu.Lock()
			b.connects++
			b.mu.Unlock()
			conn.WriteMessage(websocket.TextMessage, NewFrame(CmdConnected, "version", "1.2").Marshal())
		case CmdSubscribe:
			b.mu.Lock()
			b.subs[f.Headers["destination"]] = f.Headers["id"]
			b.mu.Unlock()
		case CmdUnsubscribe:
			b.mu.Lock()
			for dest, id := range b.subs {
				if id == f.Headers["id"] {
					delete(b.subs, dest)
				}
			}
			b.mu.Unlock()
		}
	}
}

func (b *stompBroker) publish(destination string, body string) {
	b.mu.Lock()
	conn := b.conn
	subID := b.subs[destination]
	b.mu.Unlock()
	f := NewFrame(CmdMessage, "subscription", subID, "destination", destination)
	f.Body = []byte(body)
	conn.WriteMessage(websocket.TextMessage, f.Marshal())
}

func (b *stompBroker) subscribed(destination string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.subs[destination]
	return ok
}

func (b *stompBroker) dropConnection() {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	conn.Close()
}

func (b *stompBroker) connectCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connects
}

func newTestClient(t *testing.T) (*Client, *stompBroker) {
	t.Helper()
	broker := newStompBroker()
	srv := httptest.NewServer(http.HandlerFunc(broker.handler))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := NewClient(wsURL)
	c.SetReconnectDelay(50 * time.Millisecond)
	t.Cleanup(c.Disconnect)
	return c, broker
}

func TestDeferredSubscribeRegistersAfterConnected(t *testing.T) {
	c, broker := newTestClient(t)

	// подписка оформлена до соединения
	sub := c.Subscribe("/topic/casos/nuevosCasos")
	require.NotNil(t, sub)
	assert.False(t, broker.subscribed("/topic/casos/nuevosCasos"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.Connect(ctx)
	require.NoError(t, c.WaitConnected(ctx))

	require.Eventually(t, broker.connectedSub("/topic/casos/nuevosCasos"),
		time.Second, 10*time.Millisecond, "SUBSCRIBE ушёл после CONNECTED")
}

func (b *stompBroker) connectedSub(dest string) func() bool {
	return func() bool { return b.subscribed(dest) }
}

func TestMessageDelivery(t *testing.T) {
	c, broker := newTestClient(t)
	sub := c.Subscribe("/topic/mensajes")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.Connect(ctx)
	require.NoError(t, c.WaitConnected(ctx))
	require.Eventually(t, broker.connectedSub("/topic/mensajes"), time.Second, 10*time.Millisecond)

	broker.publish("/topic/mensajes", `{"id":"m1"}`)

	select {
	case body := <-sub.Events():
		assert.JSONEq(t, `{"id":"m1"}`, string(body))
	case <-time.After(time.Second):
		t.Fatal("сообщение не дошло до подписки")
	}
}

func TestReconnectResubscribes(t *testing.T) {
	c, broker := newTestClient(t)
	c.Subscribe("/topic/casos/atendidos")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.Connect(ctx)
	require.NoError(t, c.WaitConnected(ctx))
	require.Eventually(t, broker.connectedSub("/topic/casos/atendidos"), time.Second, 10*time.Millisecond)

	broker.dropConnection()

	require.Eventually(t, func() bool {
		return broker.connectCount() >= 2 && broker.subscribed("/topic/casos/atendidos")
	}, 3*time.Second, 20*time.Millisecond, "после обрыва подписка зарегистрирована заново")
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	c, _ := newTestClient(t)
	sub := c.Subscribe("/topic/mensajes")
	sub.Unsubscribe()

	_, open := <-sub.Events()
	assert.False(t, open)
}

func TestDisconnectIdempotent(t *testing.T) {
	c, _ := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.Connect(ctx)
	require.NoError(t, c.WaitConnected(ctx))

	c.Disconnect()
	c.Disconnect() // повторный вызов безопасен
	assert.Eventually(t, func() bool { return !c.Connected() },
		time.Second, 10*time.Millisecond)
}
