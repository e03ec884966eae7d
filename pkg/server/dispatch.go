package server

import (
	"context"

	"github.com/cardgrid/memscramble/pkg/gameapi"
	"github.com/cardgrid/memscramble/pkg/lobby"
	"github.com/cardgrid/memscramble/pkg/protocol"
)

// dispatchLine decodes one request line against room's Board and
// returns the fully framed textual reply. It is shared by TCPServer and
// WSServer so both transports apply exactly the same protocol semantics.
func dispatchLine(ctx context.Context, clients *ClientManager, room *lobby.Room, client *Client, line string) string {
	req, err := protocol.Decode(line)
	if err != nil {
		return protocol.EncodeErrorReply(err)
	}

	clients.Bind(client.ID, req.PlayerID)

	var (
		snapshot string
		opErr    error
	)
	switch req.Verb {
	case protocol.VerbLook:
		snapshot, opErr = gameapi.Look(ctx, room.Board, req.PlayerID)
	case protocol.VerbFlip:
		snapshot, opErr = gameapi.Flip(ctx, room.Board, req.PlayerID, req.Row, req.Col)
	case protocol.VerbMap:
		_, opErr = gameapi.Map(ctx, room.Board, req.PlayerID)
	case protocol.VerbWatch:
		_, opErr = gameapi.Watch(ctx, room.Board, req.PlayerID)
	}

	if opErr != nil {
		return protocol.EncodeErrorReply(opErr)
	}
	return protocol.EncodeSnapshotReply(snapshot)
}
