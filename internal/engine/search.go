package engine

import (
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/hailam/chesssearch/internal/board"
)

// Search constants
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// Pruning constants
const (
	nullMinDepth  = 2 // no null move below this depth
	nullDeepDepth = 6 // from this depth on the null move reduction grows
	lmrMinDepth   = 3 // no reductions below this depth
	lmrMinMoves   = 4 // moves searched at full depth before reducing
)

// maxAspirationWidth is the widest one-sided aspiration window before that
// side is opened to Infinity.
const maxAspirationWidth = 1000

// SearchContext owns all mutable state of one search: the position, the
// per-ply scratch buffers and the statistics. The transposition table and
// the move orderer are borrowed from the engine for the session.
type SearchContext struct {
	ID string

	pos     *board.Position
	tt      *TranspositionTable
	orderer *MoveOrderer
	eval    Evaluator
	opts    Options
	logger  *log.Logger

	moveStack  [MaxPly]board.MoveList
	scoreStack [MaxPly][board.MaxMoves]int

	nodes       uint64
	cacheHits   uint64
	cacheStores uint64

	// aspiration windows that failed and were widened
	failLows  int
	failHighs int

	rootBest board.Move
}

func newSearchContext(pos *board.Position, tt *TranspositionTable, orderer *MoveOrderer, opts Options) *SearchContext {
	eval := opts.Evaluator
	if eval == nil {
		eval = MaterialEvaluator{}
	}
	return &SearchContext{
		ID:      uuid.NewString(),
		pos:     pos,
		tt:      tt,
		orderer: orderer,
		eval:    eval,
		opts:    opts,
		logger:  opts.Logger,
	}
}

// searchDepth runs one root search with the given window and returns its score.
func (sc *SearchContext) searchDepth(depth, alpha, beta int) int {
	return sc.alphaBeta(depth, alpha, beta, 0, true)
}

// iterate deepens from 1 to maxDepth, using an aspiration window around the
// previous score from depth 2 on.
func (sc *SearchContext) iterate(maxDepth int) Result {
	var res Result
	score := 0
	for depth := 1; depth <= maxDepth; depth++ {
		if depth == 1 || sc.opts.AspirationWindow <= 0 {
			score = sc.searchDepth(depth, -Infinity, Infinity)
		} else {
			score = sc.aspiration(depth, score)
		}

		res = sc.result(depth, score)
		sc.logIteration(res)

		// A forced mate will not change with more depth.
		if score > MateScore-MaxPly || score < -MateScore+MaxPly {
			break
		}
	}
	return res
}

// aspiration searches depth in a window around guess. A bound that fails is
// widened by doubling its side of the window; past maxAspirationWidth it is
// opened completely.
func (sc *SearchContext) aspiration(depth, guess int) int {
	below, above := sc.opts.AspirationWindow, sc.opts.AspirationWindow
	for {
		alpha, beta := guess-below, guess+above
		if below > maxAspirationWidth || alpha < -Infinity {
			alpha = -Infinity
		}
		if above > maxAspirationWidth || beta > Infinity {
			beta = Infinity
		}

		score := sc.searchDepth(depth, alpha, beta)
		switch {
		case score <= alpha && alpha > -Infinity:
			sc.failLows++
			below *= 2
		case score >= beta && beta < Infinity:
			sc.failHighs++
			above *= 2
		default:
			return score
		}
	}
}

func (sc *SearchContext) alphaBeta(depth, alpha, beta, ply int, allowNull bool) int {
	pos := sc.pos
	sc.nodes++

	if ply > 0 && pos.HalfMoveClock >= 100 {
		return 0
	}
	if ply >= MaxPly-1 {
		return sc.eval.Evaluate(pos)
	}

	ttMove := board.NoMove
	if entry, ok := sc.probe(); ok {
		ttMove = entry.BestMove
		if ply > 0 && int(entry.Depth) >= depth {
			score := AdjustScoreFromTT(int(entry.Score), ply)
			switch {
			case entry.Flag == TTExact:
				return score
			case entry.Flag == TTLowerBound && score >= beta:
				return score
			case entry.Flag == TTUpperBound && score <= alpha:
				return score
			}
		}
	}

	if depth <= 0 {
		return sc.quiescence(alpha, beta, ply)
	}

	inCheck := pos.InCheck()

	if sc.opts.NullMove && allowNull && ply > 0 && !inCheck && depth >= nullMinDepth && pos.HasNonPawnMaterial() {
		r := 2
		if depth >= nullDeepDepth {
			r = 3
		}
		undo := pos.MakeNullMove()
		score := -sc.alphaBeta(depth-1-r, -beta, -beta+1, ply+1, false)
		pos.UnmakeNullMove(undo)
		if score >= beta {
			return beta
		}
	}

	moves := &sc.moveStack[ply]
	pos.GenerateLegalMoves(moves)
	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	scores := sc.scoreStack[ply][:moves.Len()]
	sc.orderer.ScoreMoves(pos, moves, ply, ttMove, scores)

	us := pos.SideToMove
	origAlpha := alpha
	bestScore := -Infinity
	bestMove := board.NoMove

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		m := moves.Get(i)
		quiet := m.IsQuiet()
		killer := sc.orderer.IsKiller(m, ply)

		undo := pos.MakeMove(m)
		givesCheck := pos.InCheck()

		var score int
		if i == 0 {
			score = -sc.alphaBeta(depth-1, -beta, -alpha, ply+1, true)
		} else {
			reduction := 0
			if sc.opts.LMR && i >= lmrMinMoves && depth >= lmrMinDepth &&
				quiet && !killer && !inCheck && !givesCheck {
				reduction = 1
			}
			score = -sc.alphaBeta(depth-1-reduction, -alpha-1, -alpha, ply+1, true)
			if score > alpha && (reduction > 0 || score < beta) {
				score = -sc.alphaBeta(depth-1, -beta, -alpha, ply+1, true)
			}
		}
		pos.UnmakeMove(m, undo)

		if score > bestScore {
			bestScore = score
			bestMove = m
		}
		if score > alpha {
			alpha = score
			if ply == 0 {
				sc.rootBest = m
			}
		}
		if alpha >= beta {
			if quiet {
				sc.orderer.UpdateKillers(m, ply)
				sc.orderer.UpdateHistory(us, m, depth)
			}
			sc.store(depth, score, TTLowerBound, m, ply)
			return score
		}
	}

	flag := TTUpperBound
	if alpha > origAlpha {
		flag = TTExact
	}
	sc.store(depth, bestScore, flag, bestMove, ply)
	return bestScore
}

// quiescence searches captures only. It fails soft: a cutoff returns the
// score that caused it, so the result never drops below the stand-pat score
// even when stand-pat alone reaches beta.
func (sc *SearchContext) quiescence(alpha, beta, ply int) int {
	pos := sc.pos
	sc.nodes++

	standPat := sc.eval.Evaluate(pos)
	if ply >= MaxPly-1 || standPat >= beta {
		return standPat
	}
	if standPat > alpha {
		alpha = standPat
	}
	best := standPat

	moves := &sc.moveStack[ply]
	pos.GenerateCaptures(moves)
	scores := sc.scoreStack[ply][:moves.Len()]
	sc.orderer.ScoreMoves(pos, moves, ply, board.NoMove, scores)

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		m := moves.Get(i)

		undo := pos.MakeMove(m)
		score := -sc.quiescence(-beta, -alpha, ply+1)
		pos.UnmakeMove(m, undo)

		if score > best {
			best = score
		}
		if score >= beta {
			return score
		}
		if score > alpha {
			alpha = score
		}
	}
	return best
}

func (sc *SearchContext) probe() (TTEntry, bool) {
	if !sc.opts.UseCache {
		return TTEntry{}, false
	}
	entry, ok := sc.tt.Probe(sc.pos.Hash)
	if ok {
		sc.cacheHits++
	}
	return entry, ok
}

func (sc *SearchContext) store(depth, score int, flag TTFlag, m board.Move, ply int) {
	if !sc.opts.UseCache {
		return
	}
	if sc.tt.Store(sc.pos.Hash, depth, AdjustScoreToTT(score, ply), flag, m) {
		sc.cacheStores++
	}
}

// principalVariation starts with the root best move and follows the cached
// best moves from there. It stops at a missing or illegal entry, a repeated
// position or maxLen moves.
func (sc *SearchContext) principalVariation(maxLen int) []board.Move {
	if sc.rootBest == board.NoMove {
		return nil
	}

	pos := sc.pos.Copy()
	pv := []board.Move{sc.rootBest}
	seen := map[uint64]bool{pos.Hash: true}
	pos.MakeMove(sc.rootBest)

	for len(pv) < maxLen && sc.opts.UseCache && !seen[pos.Hash] {
		seen[pos.Hash] = true
		entry, ok := sc.tt.entryFor(pos.Hash)
		if !ok || entry.BestMove == board.NoMove || !pos.IsLegal(entry.BestMove) {
			break
		}
		pv = append(pv, entry.BestMove)
		pos.MakeMove(entry.BestMove)
	}
	return pv
}

func (sc *SearchContext) result(depth, score int) Result {
	return Result{
		BestMove:    sc.rootBest,
		Score:       score,
		Depth:       depth,
		Nodes:       sc.nodes,
		CacheHits:   sc.cacheHits,
		CacheStores: sc.cacheStores,
		PV:          sc.principalVariation(depth),
		SessionID:   sc.ID,
	}
}

func (sc *SearchContext) logIteration(res Result) {
	if sc.logger == nil {
		return
	}
	pv := make([]string, len(res.PV))
	for i, m := range res.PV {
		pv[i] = m.String()
	}
	sc.logger.Printf("session %s depth %d score %s nodes %d cache hits %d stores %d hashfull %d pv %s",
		sc.ID, res.Depth, ScoreToString(res.Score), res.Nodes, res.CacheHits, res.CacheStores,
		sc.tt.HashFull(), strings.Join(pv, " "))
}
