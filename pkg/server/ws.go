package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/cardgrid/memscramble/pkg/auth"
	"github.com/cardgrid/memscramble/pkg/log"
	"github.com/cardgrid/memscramble/pkg/lobby"
	"github.com/cardgrid/memscramble/pkg/queue"
	"nhooyr.io/websocket"
)

// WSServerOptions configures a WSServer.
type WSServerOptions struct {
	Lobby   *lobby.Lobby
	Clients *ClientManager
	Queue   queue.Queue
	Logger  *log.Logger

	// Auth verifies the token presented with "join <roomCode> <token>".
	// Defaults to auth.NoopProvider, which accepts any token (including
	// none) and never rejects a connection.
	Auth auth.Provider
}

// WSServer serves the same dispatch as TCPServer, framed as
// nhooyr.io/websocket text messages instead of raw TCP bytes. It is
// mounted as an http.Handler, typically alongside HTTPServer's mux.
type WSServer struct {
	opts WSServerOptions
}

// NewWSServer constructs a WSServer from opts.
func NewWSServer(opts WSServerOptions) *WSServer {
	if opts.Logger == nil {
		opts.Logger = log.NewLogger(os.Stderr, log.LevelInfo)
	}
	if opts.Auth == nil {
		opts.Auth = auth.NoopProvider{}
	}
	return &WSServer{opts: opts}
}

// ServeHTTP upgrades the connection and runs the same join-then-dispatch
// loop as TCPServer.handleConnection, one text message per line.
func (s *WSServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.opts.Logger.Warnf("websocket accept: %v", err)
		return
	}
	ctx := r.Context()
	defer conn.Close(websocket.StatusNormalClosure, "done")

	_, data, err := conn.Read(ctx)
	if err != nil {
		return
	}
	roomCode, token, err := parseJoinLine(string(data))
	if err != nil {
		s.write(ctx, conn, fmt.Sprintf("error: %v", err))
		return
	}
	if _, err := s.opts.Auth.VerifyToken(ctx, token); err != nil {
		s.write(ctx, conn, fmt.Sprintf("error: authentication failed: %v", err))
		return
	}
	room, ok := s.opts.Lobby.Get(roomCode)
	if !ok {
		s.write(ctx, conn, fmt.Sprintf("error: %v", &lobby.ErrRoomNotFound{Code: roomCode}))
		return
	}

	client := s.opts.Clients.Connect(roomCode)
	s.notify(ctx, roomCode, queue.EventPlayerJoined, client.ID)
	defer func() {
		s.opts.Clients.Disconnect(client.ID)
		s.notify(ctx, roomCode, queue.EventPlayerLeft, client.ID)
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		reply := dispatchLine(ctx, s.opts.Clients, room, client, strings.TrimRight(string(data), "\n"))
		if err := s.write(ctx, conn, reply); err != nil {
			return
		}
	}
}

func (s *WSServer) write(ctx context.Context, conn *websocket.Conn, msg string) error {
	return conn.Write(ctx, websocket.MessageText, []byte(msg))
}

func (s *WSServer) notify(ctx context.Context, roomCode string, t queue.EventType, clientID string) {
	if s.opts.Queue == nil {
		return
	}
	ev := queue.Event{RoomCode: roomCode, Type: t, PlayerID: clientID}
	if err := s.opts.Queue.Enqueue(ctx, ev); err != nil {
		s.opts.Logger.Debugf("dropping connection event for room %s: %v", roomCode, err)
	}
}
