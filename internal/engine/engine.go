package engine

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/hailam/chesssearch/internal/board"
)

// MaxDepth bounds the depth accepted by the search entry points.
const MaxDepth = 64

// ErrInvalidDepth is returned for a depth outside 1..MaxDepth.
var ErrInvalidDepth = errors.New("engine: depth out of range")

// Options configures an Engine.
type Options struct {
	HashMB           int  // transposition table budget
	UseCache         bool // probe and store the transposition table
	NullMove         bool // null-move pruning
	LMR              bool // late move reductions
	AspirationWindow int  // initial half-width in centipawns, 0 disables

	Evaluator Evaluator   // nil means MaterialEvaluator
	Logger    *log.Logger // nil keeps the search silent
}

// DefaultOptions returns the options used by the command-line front-end.
func DefaultOptions() Options {
	return Options{
		HashMB:           16,
		UseCache:         true,
		NullMove:         true,
		LMR:              true,
		AspirationWindow: 50,
	}
}

// Result is the outcome of a search.
type Result struct {
	BestMove    board.Move
	Score       int // centipawns from the side to move's point of view
	Depth       int
	Nodes       uint64
	CacheHits   uint64
	CacheStores uint64
	PV          []board.Move
	SessionID   string
}

// Engine runs searches against a transposition table and move-ordering
// tables that persist between searches until Clear is called. Searches on
// one Engine are serialized.
type Engine struct {
	mu      sync.Mutex
	opts    Options
	tt      *TranspositionTable
	orderer *MoveOrderer
}

// NewEngine creates an engine with the given options.
func NewEngine(opts Options) *Engine {
	return &Engine{
		opts:    opts,
		tt:      NewTranspositionTable(opts.HashMB),
		orderer: NewMoveOrderer(),
	}
}

// Options returns the engine's configuration.
func (e *Engine) Options() Options {
	return e.opts
}

// SearchRoot performs a single full-window search to the given depth.
func (e *Engine) SearchRoot(s board.Snapshot, depth int) (Result, error) {
	return e.run(s, depth, func(sc *SearchContext) Result {
		score := sc.searchDepth(depth, -Infinity, Infinity)
		res := sc.result(depth, score)
		sc.logIteration(res)
		return res
	})
}

// SearchIterative deepens from 1 to maxDepth with aspiration windows and
// returns the result of the last completed depth.
func (e *Engine) SearchIterative(s board.Snapshot, maxDepth int) (Result, error) {
	return e.run(s, maxDepth, func(sc *SearchContext) Result {
		return sc.iterate(maxDepth)
	})
}

func (e *Engine) run(s board.Snapshot, depth int, search func(*SearchContext) Result) (Result, error) {
	if depth < 1 || depth > MaxDepth {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidDepth, depth)
	}
	pos, err := board.NewPositionFromSnapshot(s)
	if err != nil {
		return Result{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.tt.NewSearch()
	sc := newSearchContext(pos, e.tt, e.orderer, e.opts)
	return search(sc), nil
}

// Perft counts the leaf positions reachable after exactly depth legal plies.
func (e *Engine) Perft(s board.Snapshot, depth int) (uint64, error) {
	pos, err := board.NewPositionFromSnapshot(s)
	if err != nil {
		return 0, err
	}
	return pos.Perft(depth), nil
}

// MoveToNotation renders m in SAN for the snapshot's position.
func (e *Engine) MoveToNotation(s board.Snapshot, m board.Move) (string, error) {
	pos, err := board.NewPositionFromSnapshot(s)
	if err != nil {
		return "", err
	}
	if !pos.IsLegal(m) {
		return "", fmt.Errorf("%w: %v", board.ErrIllegalMove, m)
	}
	return m.ToSAN(pos), nil
}

// Clear resets the transposition table and the killer and history tables,
// making the next search independent of earlier ones.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tt.Clear()
	e.orderer.Clear()
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if score > MateScore-MaxPly {
		return fmt.Sprintf("mate %d", (MateScore-score+1)/2)
	}
	if score < -MateScore+MaxPly {
		return fmt.Sprintf("mate -%d", (MateScore+score+1)/2)
	}
	return fmt.Sprintf("%+.2f", float64(score)/100)
}
