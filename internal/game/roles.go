package game

import "math/rand"

// Chance for an Agent or Triple Agent to draw one of the rare abilities
// instead of the general pool.
const rareAbilityChance = 0.20

var abilityCatalog = map[AbilityID]Ability{
	AbilitySpyVote:        {ID: AbilitySpyVote, Name: "Peek Vote", Description: "See one player's current vote"},
	AbilitySwapVote:       {ID: AbilitySwapVote, Name: "Swap Vote", Description: "Change your own vote after casting it"},
	AbilityExtraTime:      {ID: AbilityExtraTime, Name: "Extra Time", Description: "Add 30 seconds to the timer"},
	AbilityForceRevote:    {ID: AbilityForceRevote, Name: "Force Revote", Description: "Throw away all votes and start the ballot over"},
	AbilityPeekRole:       {ID: AbilityPeekRole, Name: "Reveal Role", Description: "See one player's role"},
	AbilityShield:         {ID: AbilityShield, Name: "Shield", Description: "Survive the next elimination aimed at you"},
	AbilityNegativeVote:   {ID: AbilityNegativeVote, Name: "Negative Vote", Description: "Your vote counts as -1 for its target"},
	AbilityForensic:       {ID: AbilityForensic, Name: "Forensic Investigation", Description: "See who voted for whom last round"},
	AbilityScrambleSecret: {ID: AbilityScrambleSecret, Name: "Scramble the Secret", Description: "Post the secret fact to the spy chat, word order shuffled"},
	AbilityDelayedRevote:  {ID: AbilityDelayedRevote, Name: "Delayed Revote", Description: "Reopen the ballot after the result is shown"},
}

// Spies draw only from their own set so they can never hold agent
// tools. Shield is rare-only; forensic sits in both pools.
var (
	generalAbilityPool = []AbilityID{AbilitySpyVote, AbilitySwapVote, AbilityExtraTime, AbilityForceRevote, AbilityPeekRole, AbilityForensic}
	rareAbilityPool    = []AbilityID{AbilityShield, AbilityForensic}
	spyAbilityPool     = []AbilityID{AbilityScrambleSecret, AbilityDelayedRevote}
)

func newAbility(id AbilityID) *Ability {
	a := abilityCatalog[id]
	return &a
}

// RandomAbility draws a role-weighted ability. The Jester always gets
// the negative-vote passive; Spies always draw from the spy pool.
func RandomAbility(role Role, rng *rand.Rand) *Ability {
	switch role {
	case RoleJester:
		return newAbility(AbilityNegativeVote)
	case RoleSpy:
		return newAbility(spyAbilityPool[rng.Intn(len(spyAbilityPool))])
	}
	if rng.Float64() < rareAbilityChance {
		return newAbility(rareAbilityPool[rng.Intn(len(rareAbilityPool))])
	}
	return newAbility(generalAbilityPool[rng.Intn(len(generalAbilityPool))])
}

// AssignRoles stamps every player with a role and exactly one ability,
// then reshuffles the list so array position carries no information
// about who got what. Deterministic given rng.
func AssignRoles(players []*Player, rng *rand.Rand) []*Player {
	n := len(players)
	shuffled := append([]*Player(nil), players...)
	shufflePlayers(shuffled, rng)

	numSpies := n / 3
	if numSpies < 1 {
		numSpies = 1
	}

	hasTriple, hasJester := false, false
	switch {
	case n >= 7:
		hasTriple, hasJester = true, true
	case n >= 5:
		if rng.Float64() < 0.5 {
			hasTriple = true
		} else {
			hasJester = true
		}
	}

	for i, p := range shuffled {
		role := RoleAgent
		switch {
		case i < numSpies:
			role = RoleSpy
		case hasTriple && i == numSpies:
			role = RoleTriple
		case hasJester && i == numSpies+boolToInt(hasTriple):
			role = RoleJester
		}
		p.Role = role
		p.Abilities = []*Ability{RandomAbility(role, rng)}
		p.IsReady = false
		p.IsEliminated = false
		p.HasVoted = false
		p.VotedFor = ""
	}

	shufflePlayers(shuffled, rng)
	return shuffled
}

func shufflePlayers(ps []*Player, rng *rand.Rand) {
	for i := len(ps) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		ps[i], ps[j] = ps[j], ps[i]
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
