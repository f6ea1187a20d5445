package game

import (
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spyplus/server/internal/content"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrRoomFull         = errors.New("room full")
	ErrGameStarted      = errors.New("game already started")
	ErrGameOver         = errors.New("game has ended")
	ErrNotHost          = errors.New("not host")
	ErrInvalidName      = errors.New("invalid player name")
	ErrInvalidPhase     = errors.New("invalid phase for action")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrAbilityUsed      = errors.New("ability already used")
	ErrInvalidTarget    = errors.New("invalid ability target")
	ErrCannotKickHost   = errors.New("cannot kick the host")
)

// Room codes use an alphabet without easily confused characters.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const codeLength = 6

const maxNameLength = 20

// Options configure a Store. Zero fields fall back to defaults; the
// clock and random source are injectable for seeded tests.
type Options struct {
	Content         *content.Provider
	Now             func() time.Time
	Rand            *rand.Rand
	MaxPlayers      int
	MaxRounds       int
	RoomTTL         time.Duration
	DisconnectGrace time.Duration
	DiscussionTime  time.Duration
	VotingTime      time.Duration
}

// Store is the authoritative in-memory registry of all rooms. The
// registry map is guarded by mu; each room carries its own mutex so
// one room's transition never blocks another's.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	rngMu sync.Mutex
	rng   *rand.Rand

	content         *content.Provider
	now             func() time.Time
	maxPlayers      int
	maxRounds       int
	roomTTL         time.Duration
	disconnectGrace time.Duration
	discussionTime  time.Duration
	votingTime      time.Duration
}

func NewStore(opts Options) *Store {
	s := &Store{
		rooms:           make(map[string]*Room),
		rng:             opts.Rand,
		content:         opts.Content,
		now:             opts.Now,
		maxPlayers:      opts.MaxPlayers,
		maxRounds:       opts.MaxRounds,
		roomTTL:         opts.RoomTTL,
		disconnectGrace: opts.DisconnectGrace,
		discussionTime:  opts.DiscussionTime,
		votingTime:      opts.VotingTime,
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.content == nil {
		s.content = content.NewProvider(s.rng)
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.maxPlayers == 0 {
		s.maxPlayers = 10
	}
	if s.maxRounds == 0 {
		s.maxRounds = 3
	}
	if s.roomTTL == 0 {
		s.roomTTL = 2 * time.Hour
	}
	if s.disconnectGrace == 0 {
		s.disconnectGrace = 2 * time.Minute
	}
	if s.discussionTime == 0 {
		s.discussionTime = 3 * time.Minute
	}
	if s.votingTime == 0 {
		s.votingTime = time.Minute
	}
	return s
}

func (s *Store) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

func (s *Store) randomCode() string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[s.rng.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// Room returns the live aggregate; callers take Snapshots for fan-out.
func (s *Store) Room(id string) (*Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := s.rooms[id]
	if r == nil {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// RoomByCode looks a room up by its shareable code. Codes are only
// unique among non-terminal rooms, so finished games are skipped.
func (s *Store) RoomByCode(code string) (*Room, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rooms {
		r.mu.Lock()
		match := r.Code == code && r.Status != PhaseGameOver
		r.mu.Unlock()
		if match {
			return r, nil
		}
	}
	return nil, ErrRoomNotFound
}

func validName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && len(name) <= maxNameLength
}

func (s *Store) CreateRoom(hostName string) (*Room, string, error) {
	hostName = strings.TrimSpace(hostName)
	if !validName(hostName) {
		return nil, "", ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	code := s.randomCode()
	for s.codeTakenLocked(code) {
		code = s.randomCode()
	}

	now := s.now()
	playerID := uuid.NewString()
	host := &Player{ID: playerID, Name: hostName, IsHost: true, IsConnected: true}
	room := &Room{
		ID:          uuid.NewString(),
		Code:        code,
		HostID:      playerID,
		Players:     []*Player{host},
		Status:      PhaseWaiting,
		MaxPlayers:  s.maxPlayers,
		MaxRounds:   s.maxRounds,
		Votes:       make(map[string]string),
		ShieldedIDs: make(map[string]bool),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.rooms[room.ID] = room
	return room, playerID, nil
}

func (s *Store) codeTakenLocked(code string) bool {
	for _, r := range s.rooms {
		r.mu.Lock()
		taken := r.Code == code && r.Status != PhaseGameOver
		r.mu.Unlock()
		if taken {
			return true
		}
	}
	return false
}

func (s *Store) JoinRoom(code, playerName string) (*Room, string, error) {
	playerName = strings.TrimSpace(playerName)
	if !validName(playerName) {
		return nil, "", ErrInvalidName
	}
	room, err := s.RoomByCode(code)
	if err != nil {
		return nil, "", err
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.Status != PhaseWaiting {
		return nil, "", ErrGameStarted
	}
	if len(room.Players) >= room.MaxPlayers {
		return nil, "", ErrRoomFull
	}
	playerID := uuid.NewString()
	room.Players = append(room.Players, &Player{ID: playerID, Name: playerName, IsConnected: true})
	room.UpdatedAt = s.now()
	return room, playerID, nil
}

// LeaveRoom removes a lobby player outright; mid-game it eliminates the
// seat instead so the roster stays consistent for the vote tabulator.
// Returns nil when the room was deleted along with its last player.
func (s *Store) LeaveRoom(roomID, playerID string) (*Room, error) {
	room, err := s.Room(roomID)
	if err != nil {
		return nil, err
	}

	room.mu.Lock()
	p := room.player(playerID)
	if p == nil {
		room.mu.Unlock()
		return room, nil
	}
	if room.Status == PhaseWaiting || room.Status == PhaseGameOver {
		room.removePlayerLocked(playerID)
	} else {
		p.IsEliminated = true
		p.IsConnected = false
		now := s.now()
		p.DisconnectedAt = &now
		if room.HostID == playerID {
			room.reassignHostLocked()
		}
		room.checkForcedEndLocked()
	}
	room.UpdatedAt = s.now()
	empty := len(room.Players) == 0
	room.mu.Unlock()

	if empty {
		s.deleteRoom(roomID)
		return nil, nil
	}
	return room, nil
}

func (s *Store) KickPlayer(roomID, hostID, targetID string) (*Room, error) {
	room, err := s.Room(roomID)
	if err != nil {
		return nil, err
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.HostID != hostID {
		return nil, ErrNotHost
	}
	if targetID == hostID {
		return nil, ErrCannotKickHost
	}
	if room.player(targetID) == nil {
		return nil, ErrPlayerNotFound
	}
	room.removePlayerLocked(targetID)
	if room.Status != PhaseWaiting && room.Status != PhaseGameOver {
		room.checkForcedEndLocked()
	}
	room.UpdatedAt = s.now()
	return room, nil
}

// Reconnect re-associates a known player with a room, replaying the
// authoritative state. Stale session records land in ErrRoomNotFound or
// ErrPlayerNotFound, which callers treat as a normal outcome.
func (s *Store) Reconnect(roomID, playerID string) (*Room, error) {
	room, err := s.Room(roomID)
	if err != nil {
		return nil, err
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	p := room.player(playerID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	if room.Status == PhaseGameOver {
		return nil, ErrGameOver
	}
	p.IsConnected = true
	p.DisconnectedAt = nil
	room.UpdatedAt = s.now()
	return room, nil
}

// MarkConnected flips a player's connection state; disconnects record
// the timestamp used by the grace-period sweep and hand hosting to the
// next connected player.
func (s *Store) MarkConnected(roomID, playerID string, connected bool) (*Room, error) {
	room, err := s.Room(roomID)
	if err != nil {
		return nil, err
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	p := room.player(playerID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	p.IsConnected = connected
	if connected {
		p.DisconnectedAt = nil
	} else {
		now := s.now()
		p.DisconnectedAt = &now
		if room.HostID == playerID {
			room.reassignHostLocked()
		}
	}
	room.UpdatedAt = s.now()
	return room, nil
}

func (s *Store) StartGame(roomID, requesterID string) (*Room, error) {
	room, err := s.Room(roomID)
	if err != nil {
		return nil, err
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.HostID != requesterID {
		return nil, ErrNotHost
	}
	if room.Status != PhaseWaiting {
		return nil, ErrInvalidPhase
	}
	if len(room.Players) < 3 {
		return nil, ErrNotEnoughPlayers
	}

	s.rngMu.Lock()
	room.Players = AssignRoles(room.Players, s.rng)
	mission := s.content.RandomMission("")
	room.MissionAlternatives = s.content.Alternatives(mission, 5)
	s.rngMu.Unlock()

	room.Mission = &mission
	room.Status = PhaseRoleReveal
	room.CurrentRound = 1
	room.Winner = ""
	room.PhaseDeadline = time.Time{}
	room.UpdatedAt = s.now()
	return room, nil
}

func (s *Store) MarkReady(roomID, playerID string) (*Room, bool, error) {
	room, err := s.Room(roomID)
	if err != nil {
		return nil, false, err
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	p := room.player(playerID)
	if p == nil {
		return nil, false, ErrPlayerNotFound
	}
	p.IsReady = true
	room.UpdatedAt = s.now()
	return room, room.allReadyLocked(), nil
}

func (r *Room) allReadyLocked() bool {
	for _, p := range r.Players {
		if p.IsEliminated || !p.IsConnected {
			continue
		}
		if !p.IsReady {
			return false
		}
	}
	return true
}

// StartMission leaves role_reveal once every connected active player
// has acknowledged their role.
func (s *Store) StartMission(roomID string) (*Room, error) {
	room, err := s.Room(roomID)
	if err != nil {
		return nil, err
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.Status != PhaseRoleReveal {
		return nil, ErrInvalidPhase
	}
	if !room.allReadyLocked() {
		return nil, ErrInvalidPhase
	}
	for _, p := range room.Players {
		p.IsReady = false
	}
	room.Status = PhaseMission
	room.UpdatedAt = s.now()
	return room, nil
}

// NextPhase drives the state machine forward one step. Submission and
// voting phases normally advance themselves; this is the host- or
// timer-triggered path for the rest.
func (s *Store) NextPhase(roomID string) (*Room, error) {
	room, err := s.Room(roomID)
	if err != nil {
		return nil, err
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	s.nextPhaseLocked(room)
	room.UpdatedAt = s.now()
	return room, nil
}

func (s *Store) nextPhaseLocked(r *Room) {
	switch r.Status {
	case PhaseRoleReveal:
		// Same gate as StartMission: nobody advances past the reveal
		// until every connected active player has acknowledged.
		if !r.allReadyLocked() {
			return
		}
		for _, p := range r.Players {
			p.IsReady = false
		}
		r.Status = PhaseMission
	case PhaseMission:
		switch r.Mission.SecretFact.Type {
		case content.FactDrawing:
			r.Status = PhaseDrawing
			s.armDeadlineLocked(r, time.Duration(r.Mission.Duration)*time.Second)
		case content.FactStory:
			r.Status = PhaseStory
			s.armDeadlineLocked(r, time.Duration(r.Mission.Duration)*time.Second)
		case content.FactOrdering:
			r.Status = PhaseOrdering
			s.armDeadlineLocked(r, time.Duration(r.Mission.Duration)*time.Second)
		default:
			r.Status = PhaseDiscussion
			s.armDeadlineLocked(r, s.discussionTime)
		}
	case PhaseDrawing, PhaseStory, PhaseOrdering:
		r.Status = PhaseDiscussion
		s.armDeadlineLocked(r, s.discussionTime)
	case PhaseDiscussion:
		s.openBallotLocked(r)
	case PhaseVotingResult:
		if r.CurrentRound >= r.MaxRounds {
			spies := r.countActive(RoleSpy)
			agents := r.countActive(RoleAgent, RoleTriple)
			if spies >= agents {
				r.Winner = WinnerSpies
			} else {
				r.Winner = WinnerAgents
			}
			r.Status = PhaseGameOver
			r.PhaseDeadline = time.Time{}
			return
		}
		r.CurrentRound++
		s.rngMu.Lock()
		mission := s.content.RandomMission("")
		r.MissionAlternatives = s.content.Alternatives(mission, 5)
		s.rngMu.Unlock()
		r.Mission = &mission
		r.clearRoundStateLocked()
		r.Status = PhaseMission
		r.PhaseDeadline = time.Time{}
	}
}

func (s *Store) armDeadlineLocked(r *Room, d time.Duration) {
	r.PhaseDeadline = s.now().Add(d)
}

func (s *Store) openBallotLocked(r *Room) {
	r.Status = PhaseVoting
	r.resetBallotLocked()
	s.armDeadlineLocked(r, s.votingTime)
}

func (r *Room) clearRoundStateLocked() {
	r.Drawings = nil
	r.StoryContributions = nil
	r.OrderSubmissions = nil
	r.CodeGuesses = nil
	r.Votes = make(map[string]string)
	for _, p := range r.Players {
		p.HasVoted = false
		p.VotedFor = ""
	}
}

func (s *Store) SubmitDrawing(roomID string, sub DrawingSubmission) (*Room, error) {
	return s.submit(roomID, PhaseDrawing, sub.PlayerID, func(r *Room) {
		for i, d := range r.Drawings {
			if d.PlayerID == sub.PlayerID {
				r.Drawings[i] = sub
				return
			}
		}
		r.Drawings = append(r.Drawings, sub)
	}, func(r *Room) int { return len(r.Drawings) })
}

func (s *Store) SubmitStory(roomID string, sub StoryContribution) (*Room, error) {
	return s.submit(roomID, PhaseStory, sub.PlayerID, func(r *Room) {
		for i, c := range r.StoryContributions {
			if c.PlayerID == sub.PlayerID {
				r.StoryContributions[i] = sub
				return
			}
		}
		r.StoryContributions = append(r.StoryContributions, sub)
	}, func(r *Room) int { return len(r.StoryContributions) })
}

func (s *Store) SubmitOrder(roomID string, sub OrderSubmission) (*Room, error) {
	return s.submit(roomID, PhaseOrdering, sub.PlayerID, func(r *Room) {
		for i, o := range r.OrderSubmissions {
			if o.PlayerID == sub.PlayerID {
				r.OrderSubmissions[i] = sub
				return
			}
		}
		r.OrderSubmissions = append(r.OrderSubmissions, sub)
	}, func(r *Room) int { return len(r.OrderSubmissions) })
}

// submit applies one per-player submission and auto-advances to
// discussion once every active player has sent theirs.
func (s *Store) submit(roomID string, want Phase, playerID string, apply func(*Room), count func(*Room) int) (*Room, error) {
	room, err := s.Room(roomID)
	if err != nil {
		return nil, err
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.Status != want {
		return nil, ErrInvalidPhase
	}
	p := room.player(playerID)
	if p == nil || p.IsEliminated {
		return nil, ErrPlayerNotFound
	}
	apply(room)
	if count(room) >= len(room.activePlayers()) {
		room.Status = PhaseDiscussion
		s.armDeadlineLocked(room, s.discussionTime)
	}
	room.UpdatedAt = s.now()
	return room, nil
}

// SubmitCodeGuess records a spy-side guess at the numeric code during
// discussion of a code mission. It never advances the phase.
func (s *Store) SubmitCodeGuess(roomID string, guess CodeGuess) (*Room, error) {
	room, err := s.Room(roomID)
	if err != nil {
		return nil, err
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.Status != PhaseDiscussion || room.Mission == nil || room.Mission.SecretFact.Type != content.FactCode {
		return nil, ErrInvalidPhase
	}
	if p := room.player(guess.PlayerID); p == nil || p.IsEliminated {
		return nil, ErrPlayerNotFound
	}
	for i, g := range room.CodeGuesses {
		if g.PlayerID == guess.PlayerID {
			room.CodeGuesses[i] = guess
			room.UpdatedAt = s.now()
			return room, nil
		}
	}
	room.CodeGuesses = append(room.CodeGuesses, guess)
	room.UpdatedAt = s.now()
	return room, nil
}

// SubmitVote records one vote and re-checks ballot completion. Votes
// are overwrite-idempotent per voter; the tally result is non-nil only
// when this vote closed the ballot.
func (s *Store) SubmitVote(roomID, voterID, targetID string) (*Room, *TallyResult, error) {
	room, err := s.Room(roomID)
	if err != nil {
		return nil, nil, err
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.Status != PhaseVoting {
		return nil, nil, ErrInvalidPhase
	}
	voter := room.player(voterID)
	if voter == nil || voter.IsEliminated {
		return nil, nil, ErrPlayerNotFound
	}
	room.Votes[voterID] = targetID
	voter.HasVoted = true
	voter.VotedFor = targetID
	room.UpdatedAt = s.now()

	if len(room.Votes) >= len(room.activePlayers()) {
		res := s.resolveBallotLocked(room)
		return room, &res, nil
	}
	return room, nil, nil
}

func (s *Store) resolveBallotLocked(r *Room) TallyResult {
	s.rngMu.Lock()
	res := r.resolveVotesLocked(s.rng)
	s.rngMu.Unlock()
	r.PhaseDeadline = time.Time{}
	return res
}

func (r *Room) removePlayerLocked(playerID string) {
	for i, p := range r.Players {
		if p.ID == playerID {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			break
		}
	}
	delete(r.Votes, playerID)
	if r.HostID == playerID {
		r.reassignHostLocked()
	}
}

// reassignHostLocked hands hosting to another player, preferring a
// connected one. With nobody else on the roster the current host keeps
// the flag, so a non-empty room always has exactly one host.
func (r *Room) reassignHostLocked() {
	var next *Player
	for _, p := range r.Players {
		if p.ID != r.HostID && p.IsConnected {
			next = p
			break
		}
	}
	if next == nil {
		for _, p := range r.Players {
			if p.ID != r.HostID {
				next = p
				break
			}
		}
	}
	if next == nil {
		return
	}
	for _, p := range r.Players {
		p.IsHost = false
	}
	next.IsHost = true
	r.HostID = next.ID
}

func (s *Store) deleteRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
}

// RoomCount reports the number of live rooms, for logging.
func (s *Store) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
