package game

import (
	"sync"
	"time"

	"github.com/spyplus/server/internal/content"
)

type Phase string

const (
	PhaseWaiting      Phase = "waiting"
	PhaseRoleReveal   Phase = "role_reveal"
	PhaseMission      Phase = "mission"
	PhaseDrawing      Phase = "drawing"
	PhaseStory        Phase = "story"
	PhaseOrdering     Phase = "ordering"
	PhaseDiscussion   Phase = "discussion"
	PhaseVoting       Phase = "voting"
	PhaseVotingResult Phase = "voting_result"
	PhaseGameOver     Phase = "game_over"
)

type Role string

const (
	RoleAgent  Role = "agent"
	RoleSpy    Role = "spy"
	RoleTriple Role = "triple"
	RoleJester Role = "jester"
)

type Winner string

const (
	WinnerAgents Winner = "agents"
	WinnerSpies  Winner = "spies"
	WinnerJester Winner = "jester"
)

type AbilityID string

const (
	AbilitySpyVote        AbilityID = "spy_vote"
	AbilitySwapVote       AbilityID = "swap_vote"
	AbilityExtraTime      AbilityID = "extra_time"
	AbilityForceRevote    AbilityID = "force_revote"
	AbilityPeekRole       AbilityID = "peek_role"
	AbilityShield         AbilityID = "shield"
	AbilityNegativeVote   AbilityID = "negative_vote"
	AbilityForensic       AbilityID = "forensic_investigation"
	AbilityScrambleSecret AbilityID = "scramble_secret"
	AbilityDelayedRevote  AbilityID = "delayed_revote"
)

// Ability is a single-use power bound to a player for the whole match.
// The Jester's negative_vote is the one passive: it never flips Used.
type Ability struct {
	ID          AbilityID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Used        bool      `json:"used"`
}

type Player struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Role           Role       `json:"role,omitempty"`
	IsEliminated   bool       `json:"isEliminated"`
	HasVoted       bool       `json:"hasVoted"`
	VotedFor       string     `json:"votedFor,omitempty"`
	IsHost         bool       `json:"isHost"`
	IsConnected    bool       `json:"isConnected"`
	DisconnectedAt *time.Time `json:"disconnectedAt,omitempty"`
	IsReady        bool       `json:"isReady"`
	Abilities      []*Ability `json:"abilities"`
}

func (p *Player) ability(id AbilityID) *Ability {
	for _, a := range p.Abilities {
		if a.ID == id {
			return a
		}
	}
	return nil
}

type ChatMessage struct {
	ID         string `json:"id"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
	Emoji      string `json:"emoji,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

type DrawingSubmission struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	ImageData  string `json:"imageData"`
}

type StoryContribution struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Text       string `json:"text"`
}

type OrderSubmission struct {
	PlayerID string   `json:"playerId"`
	Order    []string `json:"order"`
}

type CodeGuess struct {
	PlayerID string `json:"playerId"`
	Guess    string `json:"guess"`
}

// Room is the aggregate root for one active game. All mutation happens
// through RoomStore methods while holding mu; readers take a Snapshot.
type Room struct {
	mu sync.Mutex

	ID      string    `json:"id"`
	Code    string    `json:"code"`
	HostID  string    `json:"hostId"`
	Players []*Player `json:"players"`
	Status  Phase     `json:"status"`

	MaxPlayers   int `json:"maxPlayers"`
	CurrentRound int `json:"currentRound"`
	MaxRounds    int `json:"maxRounds"`

	Mission             *content.Mission     `json:"mission"`
	MissionAlternatives []content.SecretFact `json:"missionAlternatives"`

	Drawings           []DrawingSubmission `json:"drawings"`
	StoryContributions []StoryContribution `json:"storyContributions"`
	OrderSubmissions   []OrderSubmission   `json:"orderSubmissions"`
	CodeGuesses        []CodeGuess         `json:"codeGuesses"`

	Votes              map[string]string `json:"votes"`
	PreviousRoundVotes map[string]string `json:"previousRoundVotes,omitempty"`

	// Players whose shield covers the next elimination check.
	ShieldedIDs map[string]bool `json:"-"`

	Winner Winner `json:"winner,omitempty"`

	Messages    []ChatMessage `json:"messages"`
	SpyMessages []ChatMessage `json:"spyMessages,omitempty"`

	// Zero when the current phase has no wall-clock limit.
	PhaseDeadline time.Time `json:"phaseDeadline,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *Room) player(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) activePlayers() []*Player {
	out := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		if !p.IsEliminated {
			out = append(out, p)
		}
	}
	return out
}

func (r *Room) countActive(roles ...Role) int {
	n := 0
	for _, p := range r.Players {
		if p.IsEliminated {
			continue
		}
		for _, role := range roles {
			if p.Role == role {
				n++
				break
			}
		}
	}
	return n
}

// Snapshot returns a deep copy safe to marshal while the room keeps
// mutating. The spy chat log is stripped unless the viewer is a Spy;
// pass an empty viewerID for a host-eye view without it.
func (r *Room) Snapshot(viewerID string) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(viewerID)
}

func (r *Room) snapshotLocked(viewerID string) *Room {
	cp := &Room{
		ID:           r.ID,
		Code:         r.Code,
		HostID:       r.HostID,
		Status:       r.Status,
		MaxPlayers:   r.MaxPlayers,
		CurrentRound: r.CurrentRound,
		MaxRounds:    r.MaxRounds,
		Mission:      r.Mission,
		Winner:       r.Winner,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if !r.PhaseDeadline.IsZero() {
		cp.PhaseDeadline = r.PhaseDeadline
	}
	cp.MissionAlternatives = append([]content.SecretFact(nil), r.MissionAlternatives...)
	cp.Players = make([]*Player, len(r.Players))
	for i, p := range r.Players {
		pc := *p
		pc.Abilities = make([]*Ability, len(p.Abilities))
		for j, a := range p.Abilities {
			ac := *a
			pc.Abilities[j] = &ac
		}
		cp.Players[i] = &pc
	}
	cp.Drawings = append([]DrawingSubmission(nil), r.Drawings...)
	cp.StoryContributions = append([]StoryContribution(nil), r.StoryContributions...)
	cp.OrderSubmissions = append([]OrderSubmission(nil), r.OrderSubmissions...)
	cp.CodeGuesses = append([]CodeGuess(nil), r.CodeGuesses...)
	cp.Votes = make(map[string]string, len(r.Votes))
	for k, v := range r.Votes {
		cp.Votes[k] = v
	}
	if r.PreviousRoundVotes != nil {
		cp.PreviousRoundVotes = make(map[string]string, len(r.PreviousRoundVotes))
		for k, v := range r.PreviousRoundVotes {
			cp.PreviousRoundVotes[k] = v
		}
	}
	cp.Messages = append([]ChatMessage(nil), r.Messages...)
	viewer := r.player(viewerID)
	if viewer != nil && viewer.Role == RoleSpy {
		cp.SpyMessages = append([]ChatMessage(nil), r.SpyMessages...)
	}
	// Spies and the Jester must infer the secret; they get the fact's
	// public parts only (its kind, the hint, the item list to rank).
	if viewer != nil && (viewer.Role == RoleSpy || viewer.Role == RoleJester) && r.Mission != nil {
		m := *r.Mission
		m.SecretFact = content.SecretFact{
			Type:  m.SecretFact.Type,
			Hint:  m.SecretFact.Hint,
			Items: m.SecretFact.Items,
		}
		cp.Mission = &m
	}
	return cp
}
