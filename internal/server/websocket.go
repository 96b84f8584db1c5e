package server

import (
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/goevery/gigboard/internal/broadcaster"
	"github.com/goevery/gigboard/internal/realtime"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
	readLimit    = 4096
)

type WebSocketServer struct {
	logger   *zap.Logger
	upgrader *websocket.Upgrader

	registry broadcaster.Registry
}

func NewWebSocketServer(
	logger *zap.Logger,
	upgrader *websocket.Upgrader,
	registry broadcaster.Registry,
) *WebSocketServer {
	return &WebSocketServer{
		logger,
		upgrader,
		registry,
	}
}

func (s *WebSocketServer) Register(router *mux.Router) {
	router.HandleFunc("/ws", s.serve)
}

func (s *WebSocketServer) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(readLimit)

	connection := broadcaster.NewConnection(gonanoid.Must(), sendBuffer)
	logger := s.logger.With(
		zap.String("connectionId", connection.Id),
		zap.String("remoteAddr", r.RemoteAddr))

	s.registry.Register(connection)
	defer s.registry.Disconnect(connection.Id)

	logger.Info("websocket connection established")

	go s.write(logger, conn, connection)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("websocket read failed", zap.Error(err))
			}
			break
		}

		var frame realtime.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			logger.Warn("dropping malformed frame", zap.Error(err))
			continue
		}

		s.handle(logger, connection, frame)
	}

	logger.Info("websocket connection closed")
}

func (s *WebSocketServer) handle(logger *zap.Logger, connection *broadcaster.Connection, frame realtime.Frame) {
	switch frame.Event {
	case realtime.EventJoin:
		var join realtime.JoinPayload
		if err := json.Unmarshal(frame.Data, &join); err != nil || join.UserId == "" {
			logger.Warn("dropping invalid join", zap.ByteString("data", frame.Data))
			return
		}

		connection.SetIdentity(join.UserId, join.Role)
		s.registry.Join(join.UserId, connection)

		logger.Info("connection joined",
			zap.String("userId", join.UserId),
			zap.String("role", join.Role))
	default:
		logger.Debug("ignoring client event", zap.String("event", frame.Event))
	}
}

// write drains the connection's queue until the registry closes it.
func (s *WebSocketServer) write(logger *zap.Logger, conn *websocket.Conn, connection *broadcaster.Connection) {
	for message := range connection.Send {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))

		if err := conn.WriteJSON(message); err != nil {
			logger.Warn("websocket write failed",
				zap.String("messageId", message.Id),
				zap.Error(err))

			conn.Close()
			return
		}
	}

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
}

type OriginChecker struct {
	allowed []string
}

// NewOriginChecker accepts every origin when allowed is empty.
func NewOriginChecker(allowed []string) *OriginChecker {
	return &OriginChecker{allowed}
}

func (c *OriginChecker) Check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if len(c.allowed) == 0 || origin == "" {
		return true
	}

	return slices.Contains(c.allowed, origin)
}
