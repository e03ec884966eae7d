package board

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBoard(t *testing.T, rows, cols int, pics ...string) *Board {
	t.Helper()
	b, err := NewBoard(rows, cols, pics)
	require.NoError(t, err)
	return b
}

func mustRegister(t *testing.T, b *Board, id string) {
	t.Helper()
	require.NoError(t, b.RegisterPlayer(id, id))
}

func TestNewBoard_Validation(t *testing.T) {
	_, err := NewBoard(0, 2, []string{"a", "b"})
	assert.Error(t, err)

	_, err = NewBoard(1, 2, []string{"a"})
	assert.Error(t, err)

	_, err = NewBoard(1, 2, []string{"a", "  "})
	assert.Error(t, err)
}

func TestRegisterPlayer_IdempotentAndValidated(t *testing.T) {
	b := newTestBoard(t, 1, 2, "a", "a")
	require.NoError(t, b.RegisterPlayer("alice", "Alice"))
	require.NoError(t, b.RegisterPlayer("alice", "Alice Again"))
	assert.Equal(t, 1, b.PlayerCount())

	err := b.RegisterPlayer("", "nobody")
	var invalid *InvalidPlayerIDError
	assert.True(t, errors.As(err, &invalid))

	err = b.RegisterPlayer("has space", "x")
	assert.True(t, errors.As(err, &invalid))
}

func TestFlipUp_UnknownPlayer(t *testing.T) {
	b := newTestBoard(t, 1, 2, "a", "a")
	err := b.FlipUp(context.Background(), "ghost", 0, 0)
	var unknown *UnknownPlayerError
	assert.True(t, errors.As(err, &unknown))
}

func TestFlipUp_OutOfBounds(t *testing.T) {
	b := newTestBoard(t, 1, 2, "a", "a")
	mustRegister(t, b, "alice")
	err := b.FlipUp(context.Background(), "alice", 5, 5)
	var bounds *BoundsError
	assert.True(t, errors.As(err, &bounds))
	assert.Contains(t, err.Error(), "out of bounds")
}

// Scenario 1: FIRST flip on a face-down cell flips it up and gives
// control to the flipper (rule 1-B).
func TestScenario_FirstFlipFaceDown(t *testing.T) {
	b := newTestBoard(t, 1, 2, "cat", "dog")
	mustRegister(t, b, "alice")

	require.NoError(t, b.FlipUp(context.Background(), "alice", 0, 0))

	up, err := b.IsFaceUp(0, 0)
	require.NoError(t, err)
	assert.True(t, up)

	ctrl, err := b.ControllerAt(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "alice", ctrl)
}

// Scenario 2: a match removes both cards on the controller's next flip
// (deferred cleanup, rule 3-A).
func TestScenario_MatchRemovesCardsOnNextFlip(t *testing.T) {
	b := newTestBoard(t, 1, 3, "cat", "cat", "dog")
	mustRegister(t, b, "alice")

	require.NoError(t, b.FlipUp(context.Background(), "alice", 0, 0))
	require.NoError(t, b.FlipUp(context.Background(), "alice", 0, 1))

	// Cards stay visible as matched-but-not-yet-removed until alice's
	// next FlipUp.
	pic, err := b.PictureAt(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "cat", pic)

	// Register a second player who can observe the resolved pair before
	// it vanishes.
	mustRegister(t, b, "bob")
	ctrl, err := b.ControllerAt(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "alice", ctrl)

	// alice's next flip triggers 3-A cleanup before acting on cell (0,2).
	require.NoError(t, b.FlipUp(context.Background(), "alice", 0, 2))

	pic, err = b.PictureAt(0, 0)
	require.NoError(t, err)
	assert.Equal(t, empty, pic)
	pic, err = b.PictureAt(0, 1)
	require.NoError(t, err)
	assert.Equal(t, empty, pic)
}

// Scenario 3: a mismatch releases control immediately (2-E) but the
// cards only flip back down on the mismatched player's next flip (3-B).
func TestScenario_MismatchReleasesThenFlipsDownOnNextTurn(t *testing.T) {
	b := newTestBoard(t, 1, 3, "cat", "dog", "fox")
	mustRegister(t, b, "alice")

	require.NoError(t, b.FlipUp(context.Background(), "alice", 0, 0))
	require.NoError(t, b.FlipUp(context.Background(), "alice", 0, 1))

	// Released immediately: another player can now take control.
	ctrl, err := b.ControllerAt(0, 0)
	require.NoError(t, err)
	assert.Equal(t, empty, ctrl)

	up, err := b.IsFaceUp(0, 0)
	require.NoError(t, err)
	assert.True(t, up, "still face up until cleanup")

	mustRegister(t, b, "bob")
	require.NoError(t, b.FlipUp(context.Background(), "bob", 0, 0))
	ctrl, err = b.ControllerAt(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "bob", ctrl)

	// alice's next flip cleans up her old mismatch, but bob's claim on
	// (0,0) must survive it (flipDownIfUncontrolled must skip it).
	require.NoError(t, b.FlipUp(context.Background(), "alice", 0, 2))
	up, err = b.IsFaceUp(0, 0)
	require.NoError(t, err)
	assert.True(t, up)
}

// Scenario 4: flipping the same cell twice on SECOND fails with
// SameCardError and leaves the FIRST as a single-card linger: face up
// but immediately uncontrolled, and flipped back down as soon as
// alice's next FlipUp cleans it up (3-B).
func TestScenario_SameCardBecomesSingleLinger(t *testing.T) {
	b := newTestBoard(t, 1, 3, "cat", "dog", "fox")
	mustRegister(t, b, "alice")

	require.NoError(t, b.FlipUp(context.Background(), "alice", 0, 0))
	err := b.FlipUp(context.Background(), "alice", 0, 0)
	var same *SameCardError
	assert.True(t, errors.As(err, &same))
	assert.Contains(t, err.Error(), "cannot choose same card")

	// Still face up, but released immediately: no one controls it.
	up, err := b.IsFaceUp(0, 0)
	require.NoError(t, err)
	assert.True(t, up)
	controller, err := b.ControllerAt(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "", controller)

	mustRegister(t, b, "bob")
	require.NoError(t, b.FlipUp(context.Background(), "bob", 0, 1))
	// bob's flip doesn't touch alice's linger.
	up, err = b.IsFaceUp(0, 0)
	require.NoError(t, err)
	assert.True(t, up)

	// alice's next flip (on a different cell) cleans up the linger
	// first (3-B), flipping (0,0) back down, before becoming her new
	// FIRST on (0,2).
	require.NoError(t, b.FlipUp(context.Background(), "alice", 0, 2))
	up, err = b.IsFaceUp(0, 0)
	require.NoError(t, err)
	assert.False(t, up)
}

// Scenario 5: SECOND flip on an already-controlled cell fails immediately
// (2-B) without blocking, and leaves the FIRST as a single-card linger.
func TestScenario_SecondOnControlledCellFailsWithoutWaiting(t *testing.T) {
	b := newTestBoard(t, 1, 2, "cat", "dog")
	mustRegister(t, b, "alice")
	mustRegister(t, b, "bob")

	require.NoError(t, b.FlipUp(context.Background(), "bob", 0, 1))
	require.NoError(t, b.FlipUp(context.Background(), "alice", 0, 0))

	done := make(chan error, 1)
	go func() { done <- b.FlipUp(context.Background(), "alice", 0, 1) }()

	select {
	case err := <-done:
		var ctrlErr *ControlledError
		assert.True(t, errors.As(err, &ctrlErr))
		assert.Contains(t, err.Error(), "controlled")
	case <-time.After(2 * time.Second):
		t.Fatal("SECOND flip on a controlled cell must never block")
	}
}

// Scenario 6: a FIRST flip on a cell controlled by someone else blocks
// (1-D) until the controller relinquishes it, then proceeds.
func TestScenario_FirstFlipBlocksUntilControllerRelinquishes(t *testing.T) {
	b := newTestBoard(t, 1, 3, "cat", "dog", "cat")
	mustRegister(t, b, "alice")
	mustRegister(t, b, "bob")

	require.NoError(t, b.FlipUp(context.Background(), "alice", 0, 0))

	var wg sync.WaitGroup
	wg.Add(1)
	bobErr := make(chan error, 1)
	go func() {
		defer wg.Done()
		bobErr <- b.FlipUp(context.Background(), "bob", 0, 0)
	}()

	// Give bob's goroutine a chance to start waiting.
	time.Sleep(50 * time.Millisecond)

	// alice mismatches, releasing (0,0) immediately (2-E), which should
	// wake bob.
	require.NoError(t, b.FlipUp(context.Background(), "alice", 0, 1))

	wg.Wait()
	require.NoError(t, <-bobErr)

	ctrl, err := b.ControllerAt(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "bob", ctrl)
}

// A single-card linger (same-cell, 2-A, or 2-B) must release the FIRST
// cell's controller immediately, exactly like a 2-E mismatch does —
// otherwise anyone blocked on 1-D waiting for that cell would wait
// forever.
func TestScenario_SingleLingerWakesWaitingFirstFlip(t *testing.T) {
	b := newTestBoard(t, 1, 2, "cat", "dog")
	mustRegister(t, b, "alice")
	mustRegister(t, b, "bob")

	require.NoError(t, b.FlipUp(context.Background(), "alice", 0, 0))

	var wg sync.WaitGroup
	wg.Add(1)
	bobErr := make(chan error, 1)
	go func() {
		defer wg.Done()
		bobErr <- b.FlipUp(context.Background(), "bob", 0, 0)
	}()

	// Give bob's goroutine a chance to start waiting on (0,0).
	time.Sleep(50 * time.Millisecond)

	// alice flips her own FIRST cell again: SameCardError, (0,0) becomes
	// a single-card linger and must be released right away.
	err := b.FlipUp(context.Background(), "alice", 0, 0)
	var same *SameCardError
	assert.True(t, errors.As(err, &same))

	wg.Wait()
	require.NoError(t, <-bobErr)

	ctrl, err := b.ControllerAt(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "bob", ctrl)
}

func TestFlipUp_EmptySpace(t *testing.T) {
	b := newTestBoard(t, 1, 3, "cat", "cat", "dog")
	mustRegister(t, b, "alice")
	require.NoError(t, b.FlipUp(context.Background(), "alice", 0, 0))
	require.NoError(t, b.FlipUp(context.Background(), "alice", 0, 1))
	// triggers cleanup (removes (0,0)/(0,1)) then takes (0,2) as a fresh FIRST
	require.NoError(t, b.FlipUp(context.Background(), "alice", 0, 2))

	// SECOND flip targeting a removed cell: 2-A.
	err := b.FlipUp(context.Background(), "alice", 0, 0)
	var empty1 *EmptySpaceError
	assert.True(t, errors.As(err, &empty1))
	assert.Contains(t, err.Error(), "empty space")

	// FIRST flip (after the singleLinger from the failed SECOND above is
	// cleaned up) targeting the same removed cell: 1-A.
	err = b.FlipUp(context.Background(), "alice", 0, 0)
	assert.True(t, errors.As(err, &empty1))
}

func TestFlipUp_ContextCancellationDuringWait(t *testing.T) {
	b := newTestBoard(t, 1, 2, "cat", "dog")
	mustRegister(t, b, "alice")
	mustRegister(t, b, "bob")

	require.NoError(t, b.FlipUp(context.Background(), "alice", 0, 0))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := b.FlipUp(ctx, "bob", 0, 0)
	assert.Error(t, err)

	// No partial commit: bob must not have become controller.
	ctrl, err2 := b.ControllerAt(0, 0)
	require.NoError(t, err2)
	assert.Equal(t, "alice", ctrl)
}

func TestRender_PerspectiveRules(t *testing.T) {
	b := newTestBoard(t, 1, 3, "cat", "dog", "cat")
	mustRegister(t, b, "alice")
	mustRegister(t, b, "bob")

	require.NoError(t, b.FlipUp(context.Background(), "alice", 0, 0))

	out, err := b.Render("alice")
	require.NoError(t, err)
	assert.Equal(t, "1x3\nmy cat\ndown\ndown\n", out)

	out, err = b.Render("bob")
	require.NoError(t, err)
	assert.Equal(t, "1x3\nup cat\ndown\ndown\n", out)

	_, err = b.Render("nobody")
	var unknown *UnknownPlayerError
	assert.True(t, errors.As(err, &unknown))
}

func TestPicturesDump_RoundTrip(t *testing.T) {
	b := newTestBoard(t, 2, 2, "a", "b", "c", "d")
	assert.Equal(t, "2x2\na\nb\nc\nd\n", b.PicturesDump())
}

func TestStats_Informational(t *testing.T) {
	b := newTestBoard(t, 1, 2, "cat", "cat")
	mustRegister(t, b, "alice")

	require.NoError(t, b.FlipUp(context.Background(), "alice", 0, 0))
	require.NoError(t, b.FlipUp(context.Background(), "alice", 0, 1))

	stats, err := b.Stats("alice")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Attempts)
	assert.Equal(t, 1, stats.Matches)

	_, err = b.Stats("ghost")
	var unknown *UnknownPlayerError
	assert.True(t, errors.As(err, &unknown))
}

func TestConcurrentFlips_NoRace(t *testing.T) {
	b := newTestBoard(t, 4, 4,
		"a", "a", "b", "b",
		"c", "c", "d", "d",
		"e", "e", "f", "f",
		"g", "g", "h", "h",
	)
	players := []string{"p1", "p2", "p3", "p4"}
	for _, p := range players {
		mustRegister(t, b, p)
	}

	var wg sync.WaitGroup
	for _, p := range players {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for r := 0; r < 4; r++ {
				for c := 0; c < 4; c++ {
					_ = b.FlipUp(context.Background(), id, r, c)
				}
			}
		}(p)
	}
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("concurrent flips deadlocked")
	}
}
