package engine

import "github.com/dylhunn/dragontoothmg"

// killerTable stores up to two quiet moves per ply that produced a beta
// cutoff, for reuse at sibling nodes of the same ply. One table per
// searcher thread; cleared between searches.
type killerTable struct {
	moves [MaxPly][2]dragontoothmg.Move
}

func (k *killerTable) insert(m dragontoothmg.Move, ply int) {
	if ply < 0 || ply >= MaxPly {
		return
	}
	if m != k.moves[ply][0] {
		k.moves[ply][1] = k.moves[ply][0]
		k.moves[ply][0] = m
	}
}

func (k *killerTable) at(ply int) (first, second dragontoothmg.Move) {
	if ply < 0 || ply >= MaxPly {
		return 0, 0
	}
	return k.moves[ply][0], k.moves[ply][1]
}

func (k *killerTable) clear() {
	for ply := range k.moves {
		k.moves[ply][0] = 0
		k.moves[ply][1] = 0
	}
}
