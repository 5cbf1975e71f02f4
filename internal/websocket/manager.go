package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/fasthttp/websocket"

	"charcha/client/internal/models"
)

// ConnState is the connection lifecycle state
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// EventHandler receives decoded server events. The conversation state store
// implements it.
type EventHandler interface {
	ApplyMessage(msg models.Message)
	ApplyConversationStatus(status models.ConversationStatus)
	ApplyTyping(users []string)
}

// NoticeLevel classifies user-facing notices
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeError
)

// Options configures a Manager. Zero values fall back to defaults.
type Options struct {
	DialTimeout        time.Duration
	PingInterval       time.Duration
	RejectedRetryDelay time.Duration
	ClosedRetryDelay   time.Duration

	// OnStateChange fires on Connected/Disconnected transitions
	OnStateChange func(connected bool)

	// OnNotice surfaces welcome and server-error text (a UI would toast it)
	OnNotice func(level NoticeLevel, text string)
}

func (o Options) withDefaults() Options {
	if o.DialTimeout <= 0 {
		o.DialTimeout = 20 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.RejectedRetryDelay <= 0 {
		o.RejectedRetryDelay = time.Second
	}
	if o.ClosedRetryDelay <= 0 {
		o.ClosedRetryDelay = 5 * time.Second
	}
	return o
}

// Manager owns the single logical WebSocket session: dialing, keepalive,
// classification of failures and reconnection. Connection failures are never
// fatal; the manager keeps retrying until Disconnect is called.
type Manager struct {
	selector *EndpointSelector
	handler  EventHandler
	opts     Options

	mu        sync.Mutex
	state     ConnState
	conn      *websocket.Conn
	gen       int // bumped on every teardown and dial; stale goroutines compare it
	reconnect *time.Timer
	pingStop  chan struct{}

	// serializes frame writes; the websocket allows one concurrent writer
	writeMu sync.Mutex
}

// NewManager creates a connection manager over the given endpoint selector
func NewManager(selector *EndpointSelector, handler EventHandler, opts Options) *Manager {
	return &Manager{
		selector: selector,
		handler:  handler,
		opts:     opts.withDefaults(),
	}
}

// State returns the current connection state
func (m *Manager) State() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsConnected reports whether the session is live
func (m *Manager) IsConnected() bool {
	return m.State() == StateConnected
}

// Connect opens the session. It is a no-op while connecting or connected, so
// repeated calls never open duplicate sockets.
func (m *Manager) Connect() {
	m.mu.Lock()
	if m.state != StateDisconnected {
		m.mu.Unlock()
		return
	}
	m.state = StateConnecting
	m.gen++
	gen := m.gen
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
	url := m.selector.Current()
	m.mu.Unlock()

	go m.dial(gen, url)
}

// Disconnect closes the session and suppresses any pending auto-reconnect
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
	wasConnected := m.state == StateConnected
	if m.conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = m.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	}
	m.teardownLocked()
	m.mu.Unlock()

	if wasConnected && m.opts.OnStateChange != nil {
		m.opts.OnStateChange(false)
	}
}

// JoinGroup subscribes to a group's channel
func (m *Manager) JoinGroup(groupID string) error {
	return m.Send(JoinGroupFrame(groupID))
}

// LeaveGroup unsubscribes from a group's channel
func (m *Manager) LeaveGroup(groupID string) error {
	return m.Send(LeaveGroupFrame(groupID))
}

// SendTyping signals the local typing state for a group
func (m *Manager) SendTyping(groupID string, isTyping bool) error {
	return m.Send(TypingFrame(groupID, isTyping))
}

// Send transmits a control frame if connected, and silently drops it
// otherwise. Frames are idempotent hints; nothing is queued for later.
func (m *Manager) Send(frame ClientFrame) error {
	m.mu.Lock()
	conn := m.conn
	connected := m.state == StateConnected
	m.mu.Unlock()

	if !connected || conn == nil {
		return nil
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(frame)
}

func (m *Manager) dial(gen int, url string) {
	dialer := websocket.Dialer{HandshakeTimeout: m.opts.DialTimeout}
	conn, resp, err := dialer.Dial(url, nil)
	if err != nil {
		// A handshake response means the server answered and refused us;
		// no response means the transport itself failed.
		rejected := resp != nil
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		m.dialFailed(gen, url, err, rejected)
		return
	}

	m.mu.Lock()
	if m.gen != gen {
		// Disconnect raced the dial
		m.mu.Unlock()
		conn.Close()
		return
	}
	m.conn = conn
	m.state = StateConnected
	stop := make(chan struct{})
	m.pingStop = stop
	m.mu.Unlock()

	log.Printf("WebSocket connected: %s", url)
	if m.opts.OnStateChange != nil {
		m.opts.OnStateChange(true)
	}

	go m.pingLoop(stop)
	go m.readLoop(gen, conn)
}

func (m *Manager) dialFailed(gen int, url string, err error, rejected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return
	}
	m.state = StateDisconnected

	var delay time.Duration
	if rejected {
		next := m.selector.Advance()
		delay = m.opts.RejectedRetryDelay
		log.Printf("WebSocket endpoint %s rejected connection: %v; trying %s in %s", url, err, next, delay)
	} else {
		delay = m.opts.ClosedRetryDelay
		log.Printf("WebSocket connect to %s failed: %v; retrying in %s", url, err, delay)
	}
	m.scheduleReconnectLocked(delay)
}

func (m *Manager) readLoop(gen int, conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			m.connClosed(gen, err)
			return
		}

		event, err := DecodeEvent(raw)
		if err != nil {
			log.Printf("Dropping malformed frame: %v", err)
			continue
		}
		m.dispatch(event)
	}
}

func (m *Manager) dispatch(event Event) {
	switch e := event.(type) {
	case MessageEvent:
		m.handler.ApplyMessage(e.Message)
	case ConversationStatusEvent:
		m.handler.ApplyConversationStatus(e.Status)
	case TypingEvent:
		m.handler.ApplyTyping(e.Users)
	case WelcomeEvent:
		m.notice(NoticeInfo, e.Text)
	case ErrorEvent:
		m.notice(NoticeError, e.Text)
	}
}

func (m *Manager) connClosed(gen int, err error) {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	m.teardownLocked()

	var delay time.Duration
	switch {
	case websocket.IsCloseError(err, websocket.ClosePolicyViolation, websocket.CloseProtocolError):
		// the server let us in and then threw us out; try the next endpoint
		next := m.selector.Advance()
		delay = m.opts.RejectedRetryDelay
		log.Printf("WebSocket rejected by server: %v; trying %s in %s", err, next, delay)
	case websocket.IsCloseError(err, websocket.CloseAbnormalClosure):
		delay = m.opts.ClosedRetryDelay
		log.Printf("WebSocket closed abnormally: %v; reconnecting in %s", err, delay)
	default:
		delay = m.opts.ClosedRetryDelay
		log.Printf("WebSocket closed: %v; reconnecting in %s", err, delay)
	}
	m.scheduleReconnectLocked(delay)
	m.mu.Unlock()

	if m.opts.OnStateChange != nil {
		m.opts.OnStateChange(false)
	}
}

// teardownLocked closes the socket, stops the keepalive and invalidates any
// goroutines still attached to the old connection. Callers hold m.mu.
func (m *Manager) teardownLocked() {
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	if m.pingStop != nil {
		close(m.pingStop)
		m.pingStop = nil
	}
	m.state = StateDisconnected
	m.gen++
}

// scheduleReconnectLocked arms the reconnect timer, replacing any pending
// one so two connection attempts never run concurrently. Callers hold m.mu.
func (m *Manager) scheduleReconnectLocked(delay time.Duration) {
	if m.reconnect != nil {
		m.reconnect.Stop()
	}
	m.reconnect = time.AfterFunc(delay, m.Connect)
}

func (m *Manager) pingLoop(stop chan struct{}) {
	ticker := time.NewTicker(m.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.Send(PingFrame()); err != nil {
				log.Printf("Keepalive ping failed: %v", err)
			}
		case <-stop:
			return
		}
	}
}

func (m *Manager) notice(level NoticeLevel, text string) {
	if text == "" {
		return
	}
	if m.opts.OnNotice != nil {
		m.opts.OnNotice(level, text)
		return
	}
	if level == NoticeError {
		log.Printf("Server error: %s", text)
	} else {
		log.Printf("Server: %s", text)
	}
}

// Probe dials an endpoint once and closes immediately, reporting whether the
// handshake succeeded. It does not touch any selector state.
func Probe(url string, timeout time.Duration) error {
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, resp, err := dialer.Dial(url, nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return err
	}
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return conn.Close()
}
