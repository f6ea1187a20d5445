package ws

import "encoding/json"

// Action is the closed set of client → server message kinds. Anything
// else on the wire is ignored, not fatal.
type Action string

const (
	ActionJoinRoom      Action = "join_room"
	ActionLeaveRoom     Action = "leave_room"
	ActionStartGame     Action = "start_game"
	ActionNextPhase     Action = "next_phase"
	ActionPlayerReady   Action = "player_ready"
	ActionStartMission  Action = "start_mission"
	ActionSubmitDrawing Action = "submit_drawing"
	ActionSubmitStory   Action = "submit_story"
	ActionSubmitOrder   Action = "submit_order"
	ActionSubmitCode    Action = "submit_code_guess"
	ActionSubmitVote    Action = "submit_vote"
	ActionUseAbility    Action = "use_ability"
	ActionChatMessage   Action = "send_chat_message"
	ActionSpyChat       Action = "send_spy_chat_message"
	ActionPing          Action = "ping"
)

// Envelope is the flat client → server frame.
type Envelope struct {
	Action  Action          `json:"action"`
	RoomID  string          `json:"roomId"`
	Payload json.RawMessage `json:"payload"`
}

// EventType is the closed set of server → client push kinds.
type EventType string

const (
	EventRoomUpdate        EventType = "room_update"
	EventPlayerJoined      EventType = "player_joined"
	EventPlayerLeft        EventType = "player_left"
	EventPlayerKicked      EventType = "player_kicked"
	EventGameStarted       EventType = "game_started"
	EventPhaseChanged      EventType = "phase_changed"
	EventDrawingSubmitted  EventType = "drawing_submitted"
	EventStorySubmitted    EventType = "story_submitted"
	EventOrderSubmitted    EventType = "order_submitted"
	EventCodeSubmitted     EventType = "code_submitted"
	EventVoteSubmitted     EventType = "vote_submitted"
	EventPlayerEliminated  EventType = "player_eliminated"
	EventGameOver          EventType = "game_over"
	EventAbilityUsed       EventType = "ability_used"
	EventTimerSync         EventType = "timer_sync"
	EventChatMessage       EventType = "chat_message"
	EventSpyChatMessage    EventType = "spy_chat_message"
	EventReadyStateChanged EventType = "ready_state_changed"
	EventError             EventType = "error"
)

// Event is a server → client push.
type Event struct {
	Type    EventType `json:"type"`
	RoomID  string    `json:"roomId,omitempty"`
	Payload any       `json:"payload"`
}

type joinPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

type drawingPayload struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	ImageData  string `json:"imageData"`
}

type storyPayload struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Text       string `json:"text"`
}

type orderPayload struct {
	PlayerID string   `json:"playerId"`
	Order    []string `json:"order"`
}

type codePayload struct {
	PlayerID string `json:"playerId"`
	Guess    string `json:"guess"`
}

type votePayload struct {
	VoterID  string `json:"voterId"`
	TargetID string `json:"targetId"`
}

type abilityPayload struct {
	PlayerID  string `json:"playerId"`
	AbilityID string `json:"abilityId"`
	TargetID  string `json:"targetId,omitempty"`
}

type chatPayload struct {
	Message string `json:"message"`
	Emoji   string `json:"emoji,omitempty"`
}
