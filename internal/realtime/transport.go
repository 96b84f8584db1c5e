package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Transport is one established connection to the realtime server.
type Transport interface {
	Send(data []byte) error
	Receive() ([]byte, error)
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Transport, error)
}

type WebSocketDialer struct {
	dialer       *websocket.Dialer
	header       http.Header
	writeTimeout time.Duration
}

func NewWebSocketDialer(header http.Header) *WebSocketDialer {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	return &WebSocketDialer{
		&dialer,
		header,
		10 * time.Second,
	}
}

func (d *WebSocketDialer) Dial(ctx context.Context, endpoint string) (Transport, error) {
	conn, _, err := d.dialer.DialContext(ctx, endpoint, d.header)
	if err != nil {
		return nil, err
	}

	return &webSocketTransport{conn: conn, writeTimeout: d.writeTimeout}, nil
}

type webSocketTransport struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func (t *webSocketTransport) Send(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
		return err
	}

	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *webSocketTransport) Receive() ([]byte, error) {
	for {
		messageType, data, err := t.conn.ReadMessage()
		if err != nil {
			return nil, err
		}

		if messageType == websocket.TextMessage {
			return data, nil
		}
	}
}

func (t *webSocketTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	_ = t.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)

	return t.conn.Close()
}
