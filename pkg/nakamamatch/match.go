// Package nakamamatch adapts a board.Board to a Nakama authoritative
// match, giving the core engine a second deployment path — inside a
// Nakama game server cluster — without changing a line of the core.
package nakamamatch

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/cardgrid/memscramble/pkg/board"
	"github.com/cardgrid/memscramble/pkg/gameapi"
	"github.com/cardgrid/memscramble/pkg/parser"
	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	opCodeFlip = 1
	opCodeLook = 2

	tickRate = 5

	paramBoardText  = "board"
	defaultBoardDoc = "2x2\ncat\ncat\ndog\ndog\n"
)

// MatchState is the state threaded through every MatchLoop tick: the
// authoritative Board plus the set of currently joined presences.
type MatchState struct {
	board   *board.Board
	players map[string]runtime.Presence
}

// Match implements runtime.Match by dispatching flip/look opcodes
// straight into a board.Board's public API (gameapi.Flip/gameapi.Look),
// the same entrypoints the TCP and WebSocket transports use.
type Match struct{}

var _ runtime.Match = (*Match)(nil)

func (m *Match) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	text, _ := params[paramBoardText].(string)
	if text == "" {
		text = defaultBoardDoc
	}

	b, err := parser.Load(strings.NewReader(text))
	if err != nil {
		logger.Error("failed to load board for match, falling back to default: %v", err)
		b, _ = parser.Load(strings.NewReader(defaultBoardDoc))
	}

	state := &MatchState{
		board:   b,
		players: make(map[string]runtime.Presence),
	}
	return state, tickRate, ""
}

func (m *Match) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	return state, true, ""
}

func (m *Match) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	s := state.(*MatchState)
	for _, p := range presences {
		s.players[p.GetUserId()] = p
		if err := s.board.RegisterPlayer(p.GetUserId(), p.GetUsername()); err != nil {
			logger.Warn("registering player %s: %v", p.GetUserId(), err)
		}
	}
	return s
}

func (m *Match) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	s := state.(*MatchState)
	for _, p := range presences {
		delete(s.players, p.GetUserId())
	}
	return s
}

func (m *Match) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	s := state.(*MatchState)

	for _, msg := range messages {
		userID := msg.GetUserId()
		switch msg.GetOpCode() {
		case opCodeFlip:
			var req flipRequest
			if err := json.Unmarshal(msg.GetData(), &req); err != nil {
				broadcastResult(dispatcher, opCodeFlip, "", err)
				continue
			}
			snapshot, err := gameapi.Flip(ctx, s.board, userID, req.Row, req.Col)
			broadcastResult(dispatcher, opCodeFlip, snapshot, err)
		case opCodeLook:
			snapshot, err := gameapi.Look(ctx, s.board, userID)
			broadcastResult(dispatcher, opCodeLook, snapshot, err)
		}
	}
	return s
}

func (m *Match) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	return state
}

func (m *Match) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}

type flipRequest struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type matchReply struct {
	Snapshot string `json:"snapshot,omitempty"`
	Error    string `json:"error,omitempty"`
}

func broadcastResult(dispatcher runtime.MatchDispatcher, opCode int64, snapshot string, err error) {
	reply := matchReply{Snapshot: snapshot}
	if err != nil {
		reply.Error = err.Error()
	}
	data, marshalErr := json.Marshal(reply)
	if marshalErr != nil {
		return
	}
	_ = dispatcher.BroadcastMessage(opCode, data, nil, nil, true)
}
