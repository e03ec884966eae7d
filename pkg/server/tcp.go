package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/cardgrid/memscramble/pkg/auth"
	"github.com/cardgrid/memscramble/pkg/lobby"
	"github.com/cardgrid/memscramble/pkg/log"
	"github.com/cardgrid/memscramble/pkg/protocol"
	"github.com/cardgrid/memscramble/pkg/queue"
)

// TCPServerOptions configures a TCPServer, following the options-struct
// constructor pattern used throughout this module's transports.
type TCPServerOptions struct {
	Addr    string
	Lobby   *lobby.Lobby
	Clients *ClientManager
	Queue   queue.Queue
	Logger  *log.Logger

	// Auth verifies the token presented with "join <roomCode> <token>".
	// Defaults to auth.NoopProvider, which accepts any token (including
	// none) and never rejects a connection.
	Auth auth.Provider
}

// TCPServer accepts line-oriented textual protocol connections. Each
// connection's first line must be "join <roomCode> [token]"; every line
// after that is decoded with pkg/protocol and dispatched to that room's
// Board.
type TCPServer struct {
	opts     TCPServerOptions
	listener net.Listener
}

// NewTCPServer constructs a TCPServer from opts.
func NewTCPServer(opts TCPServerOptions) *TCPServer {
	if opts.Logger == nil {
		opts.Logger = log.NewLogger(os.Stderr, log.LevelInfo)
	}
	if opts.Auth == nil {
		opts.Auth = auth.NoopProvider{}
	}
	return &TCPServer{opts: opts}
}

// Start binds the listener and serves connections until ctx is canceled.
func (s *TCPServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %v", s.opts.Addr, err)
	}
	s.listener = ln

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				s.opts.Logger.Errorf("tcp accept: %v", err)
				continue
			}
		}
		go s.handleConnection(ctx, conn)
	}
}

func (s *TCPServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)

	if !scanner.Scan() {
		return
	}
	roomCode, token, err := parseJoinLine(scanner.Text())
	if err != nil {
		conn.Write([]byte(protocol.EncodeErrorReply(err)))
		return
	}
	if _, err := s.opts.Auth.VerifyToken(ctx, token); err != nil {
		conn.Write([]byte(protocol.EncodeErrorReply(fmt.Errorf("authentication failed: %v", err))))
		return
	}
	room, ok := s.opts.Lobby.Get(roomCode)
	if !ok {
		conn.Write([]byte(protocol.EncodeErrorReply(&lobby.ErrRoomNotFound{Code: roomCode})))
		return
	}

	client := s.opts.Clients.Connect(roomCode)
	s.notify(ctx, roomCode, queue.EventPlayerJoined, client.ID)
	defer func() {
		s.opts.Clients.Disconnect(client.ID)
		s.notify(ctx, roomCode, queue.EventPlayerLeft, client.ID)
	}()

	for scanner.Scan() {
		line := scanner.Text()
		reply := dispatchLine(ctx, s.opts.Clients, room, client, line)
		if _, err := conn.Write([]byte(reply)); err != nil {
			s.opts.Logger.Warnf("writing reply to client %s: %v", client.ID, err)
			return
		}
	}
}

// notify pushes a connection lifecycle event onto the shared queue;
// nothing in this module reads the events back out. It is transport
// plumbing and never touches Board state; a full queue or a canceled
// context just drops the notification rather than blocking dispatch.
func (s *TCPServer) notify(ctx context.Context, roomCode string, t queue.EventType, clientID string) {
	if s.opts.Queue == nil {
		return
	}
	ev := queue.Event{RoomCode: roomCode, Type: t, PlayerID: clientID}
	if err := s.opts.Queue.Enqueue(ctx, ev); err != nil {
		s.opts.Logger.Debugf("dropping connection event for room %s: %v", roomCode, err)
	}
}

// parseJoinLine accepts "join <roomCode>" or "join <roomCode> <token>".
// The token is optional: auth.NoopProvider (the default) accepts an
// empty token, so an unauthenticated operator never has to send one.
func parseJoinLine(line string) (roomCode, token string, err error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || len(fields) > 3 || fields[0] != "join" {
		return "", "", fmt.Errorf("malformed request: expected \"join <roomCode> [token]\"")
	}
	if len(fields) == 3 {
		token = fields[2]
	}
	return fields[1], token, nil
}

