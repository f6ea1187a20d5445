package game

import "math/rand"

// TallyResult describes one resolved ballot.
type TallyResult struct {
	Counts       map[string]int `json:"counts"`
	EliminatedID string         `json:"eliminatedId,omitempty"`
	ShieldSaved  bool           `json:"shieldSaved"`
	NoElim       bool           `json:"noElimination"`
}

// resolveVotesLocked tallies the current vote map and applies the
// outcome. The order is load-bearing and must not change: signed
// weights, then max, then tie-break, then shield, then elimination and
// win check. Tallying always recomputes from the full map, so replayed
// vote messages can never double count.
func (r *Room) resolveVotesLocked(rng *rand.Rand) TallyResult {
	r.PreviousRoundVotes = make(map[string]string, len(r.Votes))
	for k, v := range r.Votes {
		r.PreviousRoundVotes[k] = v
	}

	counts := make(map[string]int)
	for voterID, targetID := range r.Votes {
		weight := 1
		if voter := r.player(voterID); voter != nil && voter.Role == RoleJester && voter.ability(AbilityNegativeVote) != nil {
			weight = -1
		}
		counts[targetID] += weight
	}
	res := TallyResult{Counts: counts}

	var tied []string
	max := 0
	first := true
	for id, c := range counts {
		switch {
		case first || c > max:
			max, tied, first = c, []string{id}, false
		case c == max:
			tied = append(tied, id)
		}
	}

	// A negative-vote swing can drag the leader to zero or below, in
	// which case nobody goes home this round.
	if first || max <= 0 {
		res.NoElim = true
		r.Status = PhaseVotingResult
		r.ShieldedIDs = make(map[string]bool)
		return res
	}

	chosen := tied[0]
	if len(tied) > 1 {
		// Documented non-determinism: ties break uniformly at random.
		chosen = tied[rng.Intn(len(tied))]
	}

	if r.ShieldedIDs[chosen] {
		res.ShieldSaved = true
		res.NoElim = true
		r.Status = PhaseVotingResult
		r.ShieldedIDs = make(map[string]bool)
		return res
	}
	// Shields cover exactly one elimination check, spent either way.
	r.ShieldedIDs = make(map[string]bool)

	target := r.player(chosen)
	if target == nil {
		res.NoElim = true
		r.Status = PhaseVotingResult
		return res
	}
	target.IsEliminated = true
	res.EliminatedID = chosen

	if target.Role == RoleJester {
		r.Winner = WinnerJester
		r.Status = PhaseGameOver
		return res
	}

	spies := r.countActive(RoleSpy)
	agents := r.countActive(RoleAgent, RoleTriple)
	switch {
	case spies == 0:
		r.Winner = WinnerAgents
		r.Status = PhaseGameOver
	case spies >= agents:
		r.Winner = WinnerSpies
		r.Status = PhaseGameOver
	default:
		r.Status = PhaseVotingResult
	}
	return res
}

// checkForcedEndLocked forces game_over when the table can no longer
// sustain a game: too few active players, no spies left, or spy parity.
func (r *Room) checkForcedEndLocked() bool {
	if r.Status == PhaseWaiting || r.Status == PhaseGameOver {
		return false
	}
	spies := r.countActive(RoleSpy)
	agents := r.countActive(RoleAgent, RoleTriple)
	switch {
	case len(r.activePlayers()) < 3:
		if spies >= agents {
			r.Winner = WinnerSpies
		} else {
			r.Winner = WinnerAgents
		}
	case spies == 0:
		r.Winner = WinnerAgents
	case spies >= agents:
		r.Winner = WinnerSpies
	default:
		return false
	}
	r.Status = PhaseGameOver
	return true
}
