package board

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
)

const empty = ""

type phase int

const (
	phaseIdle phase = iota
	phaseHoldingFirst
	phasePairPending
)

type pairOutcome int

const (
	outcomeNone pairOutcome = iota
	outcomeMatched
	outcomeMismatched
	outcomeSingleLinger
)

type coord struct {
	row, col int
}

// cellState is one square of the grid. It is only ever touched while the
// owning Board's mutex is held.
type cellState struct {
	picture    string
	faceUp     bool
	controller string
	cond       *sync.Cond
}

// playerTurnState is the per-player shadow for the FIRST/SECOND protocol.
type playerTurnState struct {
	phase phase

	first coord

	pairA, pairB coord
	outcome      pairOutcome
}

// PlayerStats holds informational per-player counters. They never affect
// protocol outcomes and are never persisted or ranked.
type PlayerStats struct {
	Attempts int
	Matches  int
}

// Board owns a rows x cols grid of cards and the turn state of every
// player that has played on it. All fields below are guarded by mu; the
// per-cell sync.Cond values share that same mutex.
type Board struct {
	mu sync.Mutex

	id string

	rows, cols int
	grid       []cellState

	displayNames map[string]string
	turns        map[string]*playerTurnState
	stats        map[string]*PlayerStats
}

// NewBoard constructs a board of the given size, filling it row-major
// from pictures. len(pictures) must equal rows*cols and every picture
// token must be non-empty.
func NewBoard(rows, cols int, pictures []string) (*Board, error) {
	if rows <= 0 || cols <= 0 {
		return nil, &MalformedBoardError{Reason: fmt.Sprintf("rows and cols must be positive, got %dx%d", rows, cols)}
	}
	want := rows * cols
	if len(pictures) != want {
		return nil, &MalformedBoardError{Reason: fmt.Sprintf("expected %d tokens, got %d", want, len(pictures))}
	}
	b := &Board{
		rows:         rows,
		cols:         cols,
		grid:         make([]cellState, want),
		displayNames: make(map[string]string),
		turns:        make(map[string]*playerTurnState),
		stats:        make(map[string]*PlayerStats),
	}
	for i, pic := range pictures {
		if strings.TrimSpace(pic) == "" {
			return nil, &MalformedBoardError{Reason: fmt.Sprintf("blank token at position %d", i)}
		}
		b.grid[i] = cellState{
			picture: pic,
			faceUp:  false,
			cond:    sync.NewCond(&b.mu),
		}
	}
	return b, nil
}

// SetID assigns the opaque room identifier the lobby uses to address this
// board. The core never interprets it.
func (b *Board) SetID(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.id = id
}

// ID returns the opaque room identifier, or "" if this board was
// constructed directly rather than through the lobby.
func (b *Board) ID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.id
}

func (b *Board) NumRows() int { return b.rows }
func (b *Board) NumCols() int { return b.cols }

func (b *Board) index(r, c int) (int, error) {
	if r < 0 || r >= b.rows || c < 0 || c >= b.cols {
		return 0, &BoundsError{Row: r, Col: c, Rows: b.rows, Cols: b.cols}
	}
	return r*b.cols + c, nil
}

func validatePlayerID(id string) error {
	if id == "" {
		return &InvalidPlayerIDError{PlayerID: id}
	}
	for _, r := range id {
		if unicode.IsSpace(r) {
			return &InvalidPlayerIDError{PlayerID: id}
		}
	}
	return nil
}

// RegisterPlayer adds a player to the board's registry. Re-registering an
// existing id is a no-op.
func (b *Board) RegisterPlayer(id, displayName string) error {
	if err := validatePlayerID(id); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.displayNames[id]; ok {
		return nil
	}
	b.displayNames[id] = displayName
	b.turns[id] = &playerTurnState{phase: phaseIdle}
	b.stats[id] = &PlayerStats{}
	return nil
}

func (b *Board) requirePlayer(id string) (*playerTurnState, error) {
	ts, ok := b.turns[id]
	if !ok {
		return nil, &UnknownPlayerError{PlayerID: id}
	}
	return ts, nil
}

// PlayerCount reports how many players have ever registered on this board.
func (b *Board) PlayerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.displayNames)
}

// PictureAt returns the picture token at (r,c), or the empty token if the
// card there has been removed.
func (b *Board) PictureAt(r, c int) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, err := b.index(r, c)
	if err != nil {
		return "", err
	}
	return b.grid[i].picture, nil
}

// IsFaceUp reports whether the card at (r,c) is currently face up.
func (b *Board) IsFaceUp(r, c int) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, err := b.index(r, c)
	if err != nil {
		return false, err
	}
	return b.grid[i].faceUp, nil
}

// ControllerAt returns the player-id controlling (r,c), or "" if no one
// does.
func (b *Board) ControllerAt(r, c int) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, err := b.index(r, c)
	if err != nil {
		return "", err
	}
	return b.grid[i].controller, nil
}

// Stats returns a copy of the informational attempt/match counters for a
// player.
func (b *Board) Stats(playerID string) (PlayerStats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.stats[playerID]
	if !ok {
		return PlayerStats{}, &UnknownPlayerError{PlayerID: playerID}
	}
	return *s, nil
}

// waitOnCell blocks until cell.cond is signaled or ctx is done. It never
// mutates board state; callers must re-check their predicate on return.
func (b *Board) waitOnCell(ctx context.Context, cell *cellState) error {
	if ctx == nil || ctx.Done() == nil {
		cell.cond.Wait()
		return nil
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			cell.cond.Broadcast()
			b.mu.Unlock()
		case <-done:
		}
	}()
	cell.cond.Wait()
	close(done)
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// FlipUp is the entire flip protocol: lazily clean up the player's
// previous resolved pair (3-A/3-B), then apply the FIRST-card rules
// (1-A...1-D) if the player currently holds nothing, or the SECOND-card
// rules (2-A...2-E/2-C') if they already hold a FIRST.
func (b *Board) FlipUp(ctx context.Context, playerID string, r, c int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ts, err := b.requirePlayer(playerID)
	if err != nil {
		return err
	}
	if _, err := b.index(r, c); err != nil {
		return err
	}

	if ts.phase == phasePairPending {
		b.cleanupPending(ts)
	}

	if s, ok := b.stats[playerID]; ok {
		s.Attempts++
	}

	switch ts.phase {
	case phaseIdle:
		return b.flipFirst(ctx, ts, playerID, r, c)
	case phaseHoldingFirst:
		return b.flipSecond(ctx, ts, playerID, r, c)
	default:
		return fmt.Errorf("unreachable turn phase %v", ts.phase)
	}
}

func (b *Board) flipFirst(ctx context.Context, ts *playerTurnState, playerID string, r, c int) error {
	i, err := b.index(r, c)
	if err != nil {
		return err
	}
	for {
		cell := &b.grid[i]
		switch {
		case cell.picture == empty:
			// 1-A
			return &EmptySpaceError{Row: r, Col: c}
		case !cell.faceUp:
			// 1-B
			cell.faceUp = true
			cell.controller = playerID
			ts.phase = phaseHoldingFirst
			ts.first = coord{r, c}
			return nil
		case cell.controller == empty:
			// 1-C
			cell.controller = playerID
			ts.phase = phaseHoldingFirst
			ts.first = coord{r, c}
			return nil
		default:
			// 1-D: wait for the controller to relinquish, then re-check.
			if err := b.waitOnCell(ctx, cell); err != nil {
				return err
			}
		}
	}
}

func (b *Board) relinquishToSingleLinger(ts *playerTurnState, f coord) {
	fi, err := b.index(f.row, f.col)
	if err == nil {
		firstCell := &b.grid[fi]
		firstCell.controller = empty
		firstCell.cond.Broadcast()
	}

	ts.phase = phasePairPending
	ts.pairA = f
	ts.pairB = f
	ts.outcome = outcomeSingleLinger
}

func (b *Board) flipSecond(ctx context.Context, ts *playerTurnState, playerID string, r, c int) error {
	first := ts.first
	fi, _ := b.index(first.row, first.col)

	if first.row == r && first.col == c {
		// same cell as FIRST
		b.relinquishToSingleLinger(ts, first)
		return &SameCardError{Row: r, Col: c}
	}

	i, err := b.index(r, c)
	if err != nil {
		return err
	}
	second := &b.grid[i]

	if second.picture == empty {
		// 2-A
		b.relinquishToSingleLinger(ts, first)
		return &EmptySpaceError{Row: r, Col: c}
	}
	if second.controller != empty && second.controller != playerID {
		// 2-B: never wait on the SECOND card.
		b.relinquishToSingleLinger(ts, first)
		return &ControlledError{Row: r, Col: c, Controller: second.controller}
	}

	// 2-C / 2-C': claim the card (flip up if needed, take control).
	second.faceUp = true
	second.controller = playerID

	firstCell := &b.grid[fi]
	if firstCell.picture == second.picture {
		// 2-D: matched. Player keeps control of both; resolution is
		// deferred to this player's next FlipUp.
		ts.phase = phasePairPending
		ts.pairA = first
		ts.pairB = coord{r, c}
		ts.outcome = outcomeMatched
		if s, ok := b.stats[playerID]; ok {
			s.Matches++
		}
		return nil
	}

	// 2-E: mismatch. Release both immediately so other players can
	// proceed; resolution (flip back down) is deferred to this player's
	// next FlipUp, per rule 3-B.
	firstCell.controller = empty
	second.controller = empty
	firstCell.cond.Broadcast()
	second.cond.Broadcast()

	ts.phase = phasePairPending
	ts.pairA = first
	ts.pairB = coord{r, c}
	ts.outcome = outcomeMismatched
	return nil
}

// cleanupPending resolves a previously matched/mismatched/lingering pair
// before the new FIRST/SECOND logic runs, per rules 3-A/3-B.
func (b *Board) cleanupPending(ts *playerTurnState) {
	switch ts.outcome {
	case outcomeMatched:
		b.removeCard(ts.pairA)
		b.removeCard(ts.pairB)
	case outcomeMismatched:
		b.flipDownIfUncontrolled(ts.pairA)
		b.flipDownIfUncontrolled(ts.pairB)
	case outcomeSingleLinger:
		b.flipDownIfUncontrolled(ts.pairA)
	}
	ts.phase = phaseIdle
	ts.outcome = outcomeNone
}

func (b *Board) removeCard(at coord) {
	i, err := b.index(at.row, at.col)
	if err != nil {
		return
	}
	cell := &b.grid[i]
	cell.picture = empty
	cell.faceUp = false
	cell.controller = empty
	cell.cond.Broadcast()
}

func (b *Board) flipDownIfUncontrolled(at coord) {
	i, err := b.index(at.row, at.col)
	if err != nil {
		return
	}
	cell := &b.grid[i]
	if cell.picture == empty {
		return
	}
	if cell.controller != empty {
		// still held by whoever claimed it afresh since the mismatch;
		// leave it alone, it is no longer this pending pair's concern.
		return
	}
	cell.faceUp = false
	cell.cond.Broadcast()
}

// Render produces the textual snapshot described for a given viewing
// player: each cell is "none" (removed), "down" (face down), "my
// <picture>" (face up, controlled by the viewer) or "up <picture>" (face
// up, controlled by someone else or uncontrolled).
func (b *Board) Render(playerID string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.requirePlayer(playerID); err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%dx%d\n", b.rows, b.cols)
	for _, cell := range b.grid {
		switch {
		case cell.picture == empty:
			sb.WriteString("none\n")
		case !cell.faceUp:
			sb.WriteString("down\n")
		case cell.controller == playerID:
			fmt.Fprintf(&sb, "my %s\n", cell.picture)
		default:
			fmt.Fprintf(&sb, "up %s\n", cell.picture)
		}
	}
	return sb.String(), nil
}

// PicturesDump deterministically serializes the board's current pictures
// in the <rows>x<cols> header + row-major token form. Its contents are
// only specified for a freshly parsed board; behavior after matches have
// started resolving is unspecified.
func (b *Board) PicturesDump() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "%dx%d\n", b.rows, b.cols)
	for _, cell := range b.grid {
		sb.WriteString(cell.picture)
		sb.WriteString("\n")
	}
	return sb.String()
}

// PlayerIDs returns the registered player ids in stable sorted order, for
// diagnostics and the HTTP control plane.
func (b *Board) PlayerIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]string, 0, len(b.displayNames))
	for id := range b.displayNames {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
