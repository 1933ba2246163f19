package board

// Perft counts the leaf positions reachable after exactly depth legal plies.
func (p *Position) Perft(depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	lists := make([]MoveList, depth)
	return p.perft(depth, lists)
}

func (p *Position) perft(depth int, lists []MoveList) uint64 {
	ml := &lists[depth-1]
	p.GenerateLegalMoves(ml)
	if depth == 1 {
		return uint64(ml.Len())
	}

	var nodes uint64
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		undo := p.MakeMove(m)
		nodes += p.perft(depth-1, lists)
		p.UnmakeMove(m, undo)
	}
	return nodes
}

// DivideEntry is the perft count below one root move.
type DivideEntry struct {
	Move  Move
	Nodes uint64
}

// PerftDivide returns the perft count below each legal root move, in
// generation order.
func (p *Position) PerftDivide(depth int) []DivideEntry {
	if depth <= 0 {
		return nil
	}
	var entries []DivideEntry
	for _, m := range p.LegalMoves() {
		undo := p.MakeMove(m)
		entries = append(entries, DivideEntry{Move: m, Nodes: p.Perft(depth - 1)})
		p.UnmakeMove(m, undo)
	}
	return entries
}
