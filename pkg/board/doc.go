// Package board implements the concurrency engine for a multiplayer
// "Memory Scramble" game: a grid of face-down picture cards that many
// players may flip at the same time, each hunting for matching pairs.
//
// A Board owns every Cell in its grid and every player's turn state. No
// cell or turn state ever escapes the Board; callers only ever see the
// results of FlipUp, Render, and the read-only accessors.
//
// The flip protocol is driven entirely by FlipUp, which implements:
//
//	FIRST card (the player currently holds nothing):
//	  1-A empty cell            -> fails, no state change
//	  1-B face-down cell        -> flips up, player becomes controller
//	  1-C face-up, uncontrolled -> player becomes controller
//	  1-D face-up, controlled   -> player waits for the controller to let go
//
//	SECOND card (the player already holds a FIRST):
//	  same cell                 -> fails, FIRST becomes a single-card linger
//	  2-A empty cell            -> fails, FIRST becomes a single-card linger
//	  2-B controlled by anyone  -> fails immediately, no waiting, FIRST lingers
//	  2-C/2-C' claim the card   -> player controls both cells
//	  2-D pictures match        -> player keeps control, pair is "matched"
//	  2-E pictures differ       -> both cells released, pair is "mismatched"
//
//	Cleanup (3-A/3-B) of a player's previous matched/mismatched/lingering
//	pair happens lazily, at the start of that same player's next FlipUp
//	call, before the new FIRST/SECOND logic runs. This is deliberate: it
//	lets other players see a resolved pair (and react to it, e.g. 1-C)
//	before it disappears or flips back down.
package board
