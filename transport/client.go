package transport

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second    // время на запись одного кадра
	pongWait       = 60 * time.Second    // максимальное время ожидания PONG
	pingPeriod     = (pongWait * 9) / 10 // как часто слать PING
	maxMessageSize = 1024 * 1024         // push-кейсы с вложенными данными бывают крупными

	// размер буфера канала подписки; при переполнении события
	// отбрасываются, чтобы медленный потребитель не завесил readPump
	subBuffer = 256

	defaultReconnectDelay = 5 * time.Second
)

// Subscription - одна подписка на топик. Каждая независима:
// два вызова Subscribe на один топик дают два отдельных потока.
type Subscription struct {
	ID    string
	Topic string
	C     <-chan []byte

	ch     chan []byte
	client *Client
	once   sync.Once
}

// Events возвращает канал событий подписки
func (s *Subscription) Events() <-chan []byte {
	return s.C
}

// Unsubscribe снимает подписку и закрывает канал
func (s *Subscription) Unsubscribe() {
	s.client.unsubscribe(s)
}

// Client - STOMP-клиент поверх WebSocket с автопереподключением.
// Подписки, оформленные до установления соединения, откладываются
// и регистрируются на брокере после кадра CONNECTED; после обрыва
// и переподключения все живые подписки регистрируются заново.
type Client struct {
	url            string
	reconnectDelay time.Duration
	log            *logrus.Entry

	mu        sync.Mutex
	conn      *websocket.Conn
	send      chan []byte
	subs      map[string]*Subscription
	active    bool          // Connect вызван, Disconnect ещё нет
	connected bool          // рукопожатие CONNECTED получено
	connectCh chan struct{} // закрывается при каждом CONNECTED
	cancel    context.CancelFunc
}

// NewClient создает клиента для указанного websocket-URL брокера
func NewClient(url string) *Client {
	return &Client{
		url:            url,
		reconnectDelay: defaultReconnectDelay,
		log:            logrus.WithField("component", "transport"),
		subs:           make(map[string]*Subscription),
		connectCh:      make(chan struct{}),
	}
}

// SetReconnectDelay меняет паузу между попытками переподключения
func (c *Client) SetReconnectDelay(d time.Duration) {
	c.mu.Lock()
	c.reconnectDelay = d
	c.mu.Unlock()
}

// Connect запускает цикл соединения. Идемпотентен: повторный вызов
// при активном клиенте ничего не делает.
func (c *Client) Connect(ctx context.Context) {
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return
	}
	c.active = true
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(runCtx)
}

// Connected сообщает, установлено ли соединение прямо сейчас
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// WaitConnected блокируется до ближайшего CONNECTED или отмены контекста
func (c *Client) WaitConnected(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	ch := c.connectCh
	c.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe оформляет подписку на топик. Если соединения ещё нет,
// SUBSCRIBE уйдёт на брокер сразу после CONNECTED.
func (c *Client) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		ID:     uuid.New().String(),
		Topic:  topic,
		ch:     make(chan []byte, subBuffer),
		client: c,
	}
	sub.C = sub.ch

	c.mu.Lock()
	c.subs[sub.ID] = sub
	connected := c.connected
	c.mu.Unlock()

	if connected {
		c.sendFrame(NewFrame(CmdSubscribe, "id", sub.ID, "destination", sub.Topic))
	}
	c.log.WithFields(logrus.Fields{"topic": topic, "sub": sub.ID}).Debug("подписка оформлена")
	return sub
}

func (c *Client) unsubscribe(sub *Subscription) {
	c.mu.Lock()
	_, ok := c.subs[sub.ID]
	delete(c.subs, sub.ID)
	connected := c.connected
	c.mu.Unlock()
	if !ok {
		return
	}
	if connected {
		c.sendFrame(NewFrame(CmdUnsubscribe, "id", sub.ID))
	}
	sub.once.Do(func() { close(sub.ch) })
}

// Disconnect останавливает цикл соединения и закрывает все подписки.
// Идемпотентен.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.active = false
	cancel := c.cancel
	conn := c.conn
	subs := make([]*Subscription, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.subs = make(map[string]*Subscription)
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	for _, s := range subs {
		s.once.Do(func() { close(s.ch) })
	}
	c.log.Info("транспорт остановлен")
}

// run держит соединение: dial -> CONNECT -> pumps, после обрыва
// ждёт фиксированную паузу и пробует снова.
func (c *Client) run(ctx context.Context) {
	for {
		if err := c.session(ctx); err != nil {
			c.log.WithError(err).Warn("соединение с брокером потеряно")
		}

		c.mu.Lock()
		delay := c.reconnectDelay
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// session - одна жизнь одного websocket-соединения
func (c *Client) session(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}

	send := make(chan []byte, subBuffer)
	c.mu.Lock()
	c.conn = conn
	c.send = send
	c.mu.Unlock()

	// рукопожатие
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage,
		NewFrame(CmdConnect, "accept-version", "1.2", "heart-beat", "0,0").Marshal()); err != nil {
		conn.Close()
		return err
	}

	done := make(chan struct{})
	go c.writePump(conn, send, done)
	err = c.readPump(ctx, conn)
	close(done)
	conn.Close()

	c.mu.Lock()
	c.connected = false
	c.conn = nil
	c.send = nil
	c.mu.Unlock()
	return err
}

// readPump читает кадры до обрыва соединения
func (c *Client) readPump(ctx context.Context, conn *websocket.Conn) error {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		frame, err := ParseFrame(raw)
		if err != nil {
			// битый кадр не валит поток
			c.log.WithError(err).Warn("кадр отброшен")
			continue
		}
		if frame == nil {
			continue // heartbeat
		}

		switch frame.Command {
		case CmdConnected:
			c.onConnected()
		case CmdMessage:
			c.dispatch(frame)
		case CmdError:
			c.log.WithField("body", string(frame.Body)).Warn("ERROR от брокера")
		default:
			c.log.WithField("command", frame.Command).Debug("неизвестный кадр")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// writePump пишет исходящие кадры и держит соединение живым ping'ом
func (c *Client) writePump(conn *websocket.Conn, send <-chan []byte, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// onConnected регистрирует на брокере все живые подписки и
// отпускает всех, кто ждёт WaitConnected
func (c *Client) onConnected() {
	c.mu.Lock()
	c.connected = true
	close(c.connectCh)
	c.connectCh = make(chan struct{})
	subs := make([]*Subscription, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	c.log.WithField("subs", len(subs)).Info("брокер подключен")
	for _, s := range subs {
		c.sendFrame(NewFrame(CmdSubscribe, "id", s.ID, "destination", s.Topic))
	}
}

// dispatch доставляет MESSAGE владельцу подписки
func (c *Client) dispatch(frame *Frame) {
	subID := frame.Headers["subscription"]

	c.mu.Lock()
	sub, ok := c.subs[subID]
	if !ok {
		// запасной путь: по destination (брокер мог не вернуть id)
		dest := frame.Headers["destination"]
		for _, s := range c.subs {
			if s.Topic == dest {
				sub = s
				ok = true
				break
			}
		}
	}
	c.mu.Unlock()

	if !ok {
		c.log.WithField("destination", frame.Headers["destination"]).
			Debug("MESSAGE без подписчика")
		return
	}

	select {
	case sub.ch <- frame.Body:
	default:
		c.log.WithField("topic", sub.Topic).Warn("буфер подписки полон, событие отброшено")
	}
}

func (c *Client) sendFrame(f *Frame) {
	c.mu.Lock()
	send := c.send
	c.mu.Unlock()
	if send == nil {
		return
	}
	select {
	case send <- f.Marshal():
	default:
		c.log.Warn("очередь отправки полна, кадр отброшен")
	}
}
