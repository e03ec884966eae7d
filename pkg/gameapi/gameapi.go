// Package gameapi implements the Look/Flip operations exposed to the
// server and CLI entrypoints: a thin layer over board.Board that
// registers a player on first contact and renders the post-operation
// snapshot. It never reaches into a Board's cells or turn state
// directly — only the Board's public API.
package gameapi

import (
	"context"
	"errors"

	"github.com/cardgrid/memscramble/pkg/board"
)

// ErrUnimplemented is returned by Map and Watch, which are kept out of
// scope.
var ErrUnimplemented = errors.New("unimplemented")

// Look registers playerID on b if new, then returns the rendering of b
// from that player's perspective.
func Look(ctx context.Context, b *board.Board, playerID string) (string, error) {
	if err := b.RegisterPlayer(playerID, playerID); err != nil {
		return "", err
	}
	return b.Render(playerID)
}

// Flip registers playerID on b if new, performs FlipUp(r,c), and, on
// success, returns the post-flip rendering from that player's
// perspective. A FlipUp failure is returned as-is, with no rendering:
// callers report it as the protocol's error reply rather than a
// snapshot.
func Flip(ctx context.Context, b *board.Board, playerID string, r, c int) (string, error) {
	if err := b.RegisterPlayer(playerID, playerID); err != nil {
		return "", err
	}
	if err := b.FlipUp(ctx, playerID, r, c); err != nil {
		return "", err
	}
	return b.Render(playerID)
}

// Map is deliberately unimplemented; out of core scope.
func Map(ctx context.Context, b *board.Board, playerID string) (string, error) {
	return "", ErrUnimplemented
}

// Watch is deliberately unimplemented; out of core scope.
func Watch(ctx context.Context, b *board.Board, playerID string) (string, error) {
	return "", ErrUnimplemented
}
