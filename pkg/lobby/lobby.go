// Package lobby registers concurrently running boards ("rooms"), each
// keyed by a short, generated room code. It never reaches into a Board's
// cells or turn state; it only ever calls the Board's public API.
package lobby

import (
	"context"
	"io"
	"time"

	"github.com/cardgrid/memscramble/pkg/board"
	"github.com/cardgrid/memscramble/pkg/parser"
)

// Room associates a generated room code with a Board.
type Room struct {
	Code      string
	Board     *board.Board
	CreatedAt time.Time
}

// Lobby is the registry of live rooms. It holds rooms only in memory:
// restarting the process loses every room and every board it held.
type Lobby struct {
	store Store
}

// New constructs a Lobby backed by store.
func New(store Store) *Lobby {
	return &Lobby{store: store}
}

// Create parses a board description from source, generates a room code,
// and registers the resulting room. The caller retains the returned
// Room for further use; the lobby itself never blocks on the board's
// mutex.
func (l *Lobby) Create(ctx context.Context, source io.Reader) (*Room, error) {
	b, err := parser.Load(source)
	if err != nil {
		return nil, err
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}

	b.SetID(code)
	room := &Room{Code: code, Board: b, CreatedAt: time.Now()}

	if err := l.store.Put(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// Get looks up a room by code.
func (l *Lobby) Get(code string) (*Room, bool) {
	return l.store.Get(code)
}

// List returns every currently registered room. It never touches any
// room's Board mutex.
func (l *Lobby) List() []*Room {
	return l.store.List()
}
