package game

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrPassiveAbility = errors.New("passive ability cannot be invoked")

// ExtraTimeSeconds is how much the extra_time ability adds to the
// current phase deadline.
const ExtraTimeSeconds = 30

// AbilityResult carries the free-text effect descriptor the UI
// consumes. Private effects go back to the invoker only.
type AbilityResult struct {
	AbilityID AbilityID `json:"abilityId"`
	Effect    string    `json:"effect"`
	Private   bool      `json:"-"`
}

// UseAbility consumes a player's ability and applies its effect.
// Consumption is idempotent: once Used is set, a replayed invocation is
// rejected and never re-applies the effect.
func (s *Store) UseAbility(roomID, playerID string, abilityID AbilityID, targetID string) (*Room, *AbilityResult, error) {
	room, err := s.Room(roomID)
	if err != nil {
		return nil, nil, err
	}
	room.mu.Lock()
	defer room.mu.Unlock()

	p := room.player(playerID)
	if p == nil {
		return nil, nil, ErrPlayerNotFound
	}
	ability := p.ability(abilityID)
	if ability == nil {
		return nil, nil, ErrInvalidTarget
	}
	if abilityID == AbilityNegativeVote {
		return nil, nil, ErrPassiveAbility
	}
	if ability.Used {
		return nil, nil, ErrAbilityUsed
	}

	res := &AbilityResult{AbilityID: abilityID}
	switch abilityID {
	case AbilitySpyVote, AbilityPeekRole:
		target := room.player(targetID)
		if target == nil || target.ID == playerID || target.IsEliminated {
			return nil, nil, ErrInvalidTarget
		}
		res.Private = true
		if abilityID == AbilitySpyVote {
			res.Effect = fmt.Sprintf("spy_vote:%s", target.VotedFor)
		} else {
			res.Effect = fmt.Sprintf("peek_role:%s", target.Role)
		}

	case AbilitySwapVote:
		if room.Status != PhaseVoting || !p.HasVoted {
			return nil, nil, ErrInvalidPhase
		}
		if room.player(targetID) == nil {
			return nil, nil, ErrInvalidTarget
		}
		old := room.Votes[playerID]
		room.Votes[playerID] = targetID
		p.VotedFor = targetID
		res.Effect = fmt.Sprintf("vote_swapped:%s:%s", old, targetID)

	case AbilityExtraTime:
		// State stays untouched beyond the deadline; the countdown
		// display itself lives client-side, synced via timer_sync.
		if !room.PhaseDeadline.IsZero() {
			room.PhaseDeadline = room.PhaseDeadline.Add(ExtraTimeSeconds * time.Second)
		}
		res.Effect = "extra_time_added"

	case AbilityForceRevote:
		if room.Status != PhaseVoting {
			return nil, nil, ErrInvalidPhase
		}
		room.resetBallotLocked()
		s.armDeadlineLocked(room, s.votingTime)
		res.Effect = "revote_forced"

	case AbilityDelayedRevote:
		if room.Status != PhaseVotingResult {
			return nil, nil, ErrInvalidPhase
		}
		room.Status = PhaseVoting
		room.resetBallotLocked()
		s.armDeadlineLocked(room, s.votingTime)
		res.Effect = "revote_forced"

	case AbilityShield:
		room.ShieldedIDs[playerID] = true
		res.Effect = "shield_active"

	case AbilityForensic:
		res.Private = true
		if len(room.PreviousRoundVotes) == 0 {
			res.Effect = "forensic_investigation:no_prior_round"
			break
		}
		pairs := make([]string, 0, len(room.PreviousRoundVotes))
		for voterID, tID := range room.PreviousRoundVotes {
			pairs = append(pairs, fmt.Sprintf("%s>%s", room.playerName(voterID), room.playerName(tID)))
		}
		res.Effect = "forensic_investigation:" + strings.Join(pairs, ",")

	case AbilityScrambleSecret:
		if p.Role != RoleSpy || room.Mission == nil {
			return nil, nil, ErrInvalidPhase
		}
		s.rngMu.Lock()
		scrambled := scrambleWords(room.Mission.SecretFact.Value, s.rng)
		s.rngMu.Unlock()
		room.SpyMessages = append(room.SpyMessages, ChatMessage{
			ID:         uuid.NewString(),
			PlayerID:   playerID,
			PlayerName: p.Name,
			Message:    scrambled,
			Timestamp:  s.now().UnixMilli(),
		})
		res.Effect = "secret_scrambled"

	default:
		return nil, nil, ErrInvalidTarget
	}

	ability.Used = true
	room.UpdatedAt = s.now()
	return room, res, nil
}

func (r *Room) resetBallotLocked() {
	r.Votes = make(map[string]string)
	for _, p := range r.Players {
		p.HasVoted = false
		p.VotedFor = ""
	}
}

func (r *Room) playerName(id string) string {
	if p := r.player(id); p != nil {
		return p.Name
	}
	return id
}

// scrambleWords shuffles word order, not letters, so the leak stays
// legible but is not instantly recognizable.
func scrambleWords(value string, rng interface{ Intn(int) int }) string {
	words := strings.Fields(value)
	for i := len(words) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		words[i], words[j] = words[j], words[i]
	}
	return strings.Join(words, " ")
}
