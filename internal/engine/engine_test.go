package engine

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/hailam/chesssearch/internal/board"
)

func mustSnapshot(t *testing.T, fen string) *board.FENSnapshot {
	t.Helper()
	s, err := board.ParseFENSnapshot(fen)
	if err != nil {
		t.Fatalf("ParseFENSnapshot(%q): %v", fen, err)
	}
	return s
}

// exactOptions disables the selective heuristics so scores are plain
// minimax values over the quiescence-extended tree.
func exactOptions(cache bool) Options {
	opts := DefaultOptions()
	opts.HashMB = 1
	opts.UseCache = cache
	opts.NullMove = false
	opts.LMR = false
	return opts
}

func TestSearchFindsMate(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		depth int
		moves string // any of these
		score int
	}{
		{"back rank", "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", 2, "a1a8", MateScore - 1},
		{"rook and king", "k7/8/1K6/8/8/8/8/7R w - - 0 1", 2, "h1h8", MateScore - 1},
		{"mate in two", "k7/8/2K5/8/8/8/8/7R w - - 0 1", 4, "c6b6 c6c7", MateScore - 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			eng := NewEngine(exactOptions(true))
			res, err := eng.SearchRoot(mustSnapshot(t, tc.fen), tc.depth)
			if err != nil {
				t.Fatalf("SearchRoot: %v", err)
			}
			found := false
			for _, m := range strings.Fields(tc.moves) {
				found = found || res.BestMove.String() == m
			}
			if !found || res.Score != tc.score {
				t.Errorf("got %v %d, want %s %d", res.BestMove, res.Score, tc.moves, tc.score)
			}
		})
	}
}

// Reductions and null moves must not hide a short mate once the search is
// deep enough.
func TestSearchIterativeFindsMateWithDefaults(t *testing.T) {
	opts := DefaultOptions()
	opts.HashMB = 1
	eng := NewEngine(opts)

	res, err := eng.SearchIterative(mustSnapshot(t, "k7/8/2K5/8/8/8/8/7R w - - 0 1"), 6)
	if err != nil {
		t.Fatalf("SearchIterative: %v", err)
	}
	if res.Score != MateScore-3 {
		t.Errorf("score = %d (%s), want mate in 2", res.Score, ScoreToString(res.Score))
	}
	if res.Depth > 6 {
		t.Errorf("depth = %d", res.Depth)
	}
	t.Logf("mate found at depth %d after %d nodes", res.Depth, res.Nodes)
}

func TestShorterMateScoresHigher(t *testing.T) {
	eng := NewEngine(exactOptions(true))

	inOne, err := eng.SearchRoot(mustSnapshot(t, "k7/8/1K6/8/8/8/8/7R w - - 0 1"), 4)
	if err != nil {
		t.Fatalf("SearchRoot: %v", err)
	}
	eng.Clear()
	inTwo, err := eng.SearchRoot(mustSnapshot(t, "k7/8/2K5/8/8/8/8/7R w - - 0 1"), 4)
	if err != nil {
		t.Fatalf("SearchRoot: %v", err)
	}
	if inOne.Score <= inTwo.Score {
		t.Errorf("mate in one scored %d, mate in two %d", inOne.Score, inTwo.Score)
	}
}

func TestTerminalRoot(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		score int
	}{
		{"checkmated", "R6k/6pp/8/8/8/8/8/K7 b - - 0 1", -MateScore},
		{"stalemated", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			eng := NewEngine(exactOptions(true))
			for _, iterative := range []bool{false, true} {
				var res Result
				var err error
				if iterative {
					res, err = eng.SearchIterative(mustSnapshot(t, tc.fen), 3)
				} else {
					res, err = eng.SearchRoot(mustSnapshot(t, tc.fen), 3)
				}
				if err != nil {
					t.Fatalf("search: %v", err)
				}
				if res.Score != tc.score || res.BestMove != board.NoMove {
					t.Errorf("iterative=%v: got %v %d, want no move and %d", iterative, res.BestMove, res.Score, tc.score)
				}
			}
		})
	}
}

func TestFiftyMoveRuleScoresDraw(t *testing.T) {
	eng := NewEngine(exactOptions(true))
	res, err := eng.SearchRoot(mustSnapshot(t, "4k3/8/8/8/8/8/8/R3K3 w - - 99 80"), 2)
	if err != nil {
		t.Fatalf("SearchRoot: %v", err)
	}
	if res.Score != 0 {
		t.Errorf("score = %d, want 0 once the clock reaches 100", res.Score)
	}
}

func TestCacheDoesNotChangeResult(t *testing.T) {
	fens := []string{
		"4k3/8/8/3q4/8/8/8/3RK3 w - - 0 1",
		"4k3/8/8/8/3r4/4P3/8/4K3 w - - 0 1",
		"6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1",
	}

	for _, fen := range fens {
		t.Run(fen, func(t *testing.T) {
			with := NewEngine(exactOptions(true))
			without := NewEngine(exactOptions(false))

			a, err := with.SearchRoot(mustSnapshot(t, fen), 3)
			if err != nil {
				t.Fatalf("SearchRoot: %v", err)
			}
			b, err := without.SearchRoot(mustSnapshot(t, fen), 3)
			if err != nil {
				t.Fatalf("SearchRoot: %v", err)
			}

			if a.BestMove != b.BestMove || a.Score != b.Score {
				t.Errorf("cache on: %v %d, cache off: %v %d", a.BestMove, a.Score, b.BestMove, b.Score)
			}
			if a.CacheStores == 0 {
				t.Errorf("cache on but nothing stored")
			}
			if b.CacheStores != 0 || b.CacheHits != 0 {
				t.Errorf("cache off but %d hits, %d stores", b.CacheHits, b.CacheStores)
			}
		})
	}
}

func TestAspirationMatchesFullWindow(t *testing.T) {
	fen := "r1bqkbnr/pppp1ppp/2n5/4p3/3NP3/8/PPP2PPP/RNBQKB1R b KQkq - 0 3"

	aspOpts := exactOptions(false)
	fullOpts := exactOptions(false)
	fullOpts.AspirationWindow = 0

	asp, err := NewEngine(aspOpts).SearchIterative(mustSnapshot(t, fen), 4)
	if err != nil {
		t.Fatalf("SearchIterative: %v", err)
	}
	full, err := NewEngine(fullOpts).SearchRoot(mustSnapshot(t, fen), 4)
	if err != nil {
		t.Fatalf("SearchRoot: %v", err)
	}
	if asp.Score != full.Score {
		t.Errorf("aspiration score %d, full window %d", asp.Score, full.Score)
	}
}

// tempoEvaluator adds a large bonus for the side to move, so the root score
// swings by twice the bonus from one depth to the next.
func tempoEvaluator(bonus int) Evaluator {
	return EvaluatorFunc(func(pos *board.Position) int {
		return EvaluateMaterial(pos) + bonus
	})
}

func TestAspirationWidensAfterFailures(t *testing.T) {
	tests := []struct {
		name     string
		fen      string
		depth    int
		eval     Evaluator
		moves    string // any of these
		failLows bool
	}{
		// 400 at odd depths, 600 at even ones.
		{"swinging score", "4k3/8/8/3q4/8/8/8/3RK3 w - - 0 1", 3, tempoEvaluator(100), "d1d5", true},
		// Material until depth 4 finds the mate.
		{"mate appears", "k7/8/2K5/8/8/8/8/7R w - - 0 1", 4, nil, "c6b6 c6c7", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := exactOptions(false)
			opts.Evaluator = tc.eval
			opts.AspirationWindow = 1

			sc := newTestContext(t, tc.fen, opts)
			asp := sc.iterate(tc.depth)
			if sc.failHighs == 0 {
				t.Errorf("no fail-high")
			}
			if tc.failLows && sc.failLows == 0 {
				t.Errorf("no fail-low")
			}

			opts.AspirationWindow = 0
			full, err := NewEngine(opts).SearchRoot(mustSnapshot(t, tc.fen), tc.depth)
			if err != nil {
				t.Fatalf("SearchRoot: %v", err)
			}
			if asp.Depth != tc.depth || asp.Score != full.Score {
				t.Errorf("aspiration depth %d score %d, full window score %d", asp.Depth, asp.Score, full.Score)
			}
			for _, m := range []board.Move{asp.BestMove, full.BestMove} {
				if !strings.Contains(tc.moves, m.String()) {
					t.Errorf("best move %v, want one of %s", m, tc.moves)
				}
			}
			t.Logf("%d fail-lows, %d fail-highs", sc.failLows, sc.failHighs)
		})
	}
}

func TestClearMakesSearchRepeatable(t *testing.T) {
	eng := NewEngine(DefaultOptions())
	snap := mustSnapshot(t, board.StartFEN)

	first, err := eng.SearchIterative(snap, 4)
	if err != nil {
		t.Fatalf("SearchIterative: %v", err)
	}
	warm, err := eng.SearchIterative(snap, 4)
	if err != nil {
		t.Fatalf("SearchIterative: %v", err)
	}
	if warm.Nodes >= first.Nodes {
		t.Errorf("warm search visited %d nodes, cold %d", warm.Nodes, first.Nodes)
	}

	eng.Clear()
	again, err := eng.SearchIterative(snap, 4)
	if err != nil {
		t.Fatalf("SearchIterative: %v", err)
	}
	if again.Nodes != first.Nodes || again.BestMove != first.BestMove || again.Score != first.Score {
		t.Errorf("after Clear: %v %d %d nodes, first: %v %d %d nodes",
			again.BestMove, again.Score, again.Nodes, first.BestMove, first.Score, first.Nodes)
	}
	if again.SessionID == first.SessionID {
		t.Errorf("sessions share id %s", again.SessionID)
	}
}

func TestPrincipalVariationIsLegal(t *testing.T) {
	eng := NewEngine(DefaultOptions())
	snap := mustSnapshot(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")

	res, err := eng.SearchIterative(snap, 4)
	if err != nil {
		t.Fatalf("SearchIterative: %v", err)
	}
	if len(res.PV) == 0 || res.PV[0] != res.BestMove {
		t.Fatalf("PV %v does not start with %v", res.PV, res.BestMove)
	}

	pos, err := board.NewPositionFromSnapshot(snap)
	if err != nil {
		t.Fatalf("NewPositionFromSnapshot: %v", err)
	}
	for i, m := range res.PV {
		if !pos.IsLegal(m) {
			t.Fatalf("PV move %d (%v) is illegal", i, m)
		}
		pos.MakeMove(m)
	}
	t.Logf("pv %v score %s nodes %d", res.PV, ScoreToString(res.Score), res.Nodes)
}

func TestSearchLogsEachIteration(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.HashMB = 1
	opts.Logger = log.New(&buf, "", 0)

	res, err := NewEngine(opts).SearchIterative(mustSnapshot(t, board.StartFEN), 3)
	if err != nil {
		t.Fatalf("SearchIterative: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d log lines, want 3:\n%s", len(lines), buf.String())
	}
	for i, line := range lines {
		if !strings.Contains(line, "session "+res.SessionID) {
			t.Errorf("line %d lacks the session id: %s", i, line)
		}
		if !strings.Contains(line, fmt.Sprintf("depth %d ", i+1)) {
			t.Errorf("line %d: %s", i, line)
		}
	}
}

func TestSearchRejectsBadInput(t *testing.T) {
	eng := NewEngine(DefaultOptions())

	if _, err := eng.SearchRoot(mustSnapshot(t, board.StartFEN), 0); !errors.Is(err, ErrInvalidDepth) {
		t.Errorf("depth 0: %v", err)
	}
	if _, err := eng.SearchIterative(mustSnapshot(t, board.StartFEN), MaxDepth+1); !errors.Is(err, ErrInvalidDepth) {
		t.Errorf("depth too large: %v", err)
	}
	if _, err := eng.SearchRoot(mustSnapshot(t, "8/8/8/8/8/8/8/4K3 w - - 0 1"), 2); !errors.Is(err, board.ErrMissingKing) {
		t.Errorf("missing king: %v", err)
	}
	if _, err := eng.Perft(mustSnapshot(t, "4k3/8/8/8/8/8/8/3KK3 w - - 0 1"), 1); !errors.Is(err, board.ErrMultipleKings) {
		t.Errorf("two kings: %v", err)
	}
}

func TestEnginePerft(t *testing.T) {
	eng := NewEngine(DefaultOptions())
	for depth, want := range []uint64{1, 20, 400, 8902} {
		got, err := eng.Perft(mustSnapshot(t, board.StartFEN), depth)
		if err != nil {
			t.Fatalf("Perft: %v", err)
		}
		if got != want {
			t.Errorf("Perft(%d) = %d, want %d", depth, got, want)
		}
	}
}

func TestMoveToNotation(t *testing.T) {
	eng := NewEngine(DefaultOptions())
	snap := mustSnapshot(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")

	res, err := eng.SearchRoot(snap, 2)
	if err != nil {
		t.Fatalf("SearchRoot: %v", err)
	}
	san, err := eng.MoveToNotation(snap, res.BestMove)
	if err != nil {
		t.Fatalf("MoveToNotation: %v", err)
	}
	if san != "Ra8#" {
		t.Errorf("MoveToNotation = %q, want Ra8#", san)
	}

	bogus := board.NewMove(board.E2, board.E4, board.Pawn, board.FlagDoublePush)
	if _, err := eng.MoveToNotation(snap, bogus); !errors.Is(err, board.ErrIllegalMove) {
		t.Errorf("illegal move: %v", err)
	}
}

func TestConcurrentSearchesAreSerialized(t *testing.T) {
	eng := NewEngine(DefaultOptions())
	snap := mustSnapshot(t, board.StartFEN)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := eng.SearchIterative(snap, 3)
			if err == nil && res.BestMove == board.NoMove {
				err = errors.New("no best move")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Error(err)
		}
	}
}

func TestScoreToString(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "+0.00"},
		{125, "+1.25"},
		{-50, "-0.50"},
		{MateScore - 1, "mate 1"},
		{MateScore - 3, "mate 2"},
		{-MateScore + 2, "mate -1"},
	}
	for _, tc := range tests {
		if got := ScoreToString(tc.score); got != tc.want {
			t.Errorf("ScoreToString(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}
