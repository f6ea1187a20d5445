package game

import "github.com/google/uuid"

// AppendChat adds a message to the public log.
func (s *Store) AppendChat(roomID, playerID, message, emoji string) (*Room, ChatMessage, error) {
	return s.appendChat(roomID, playerID, message, emoji, false)
}

// AppendSpyChat adds a message to the faction-restricted log. Only
// Spies may post there; the Jester and the Triple Agent never see it.
func (s *Store) AppendSpyChat(roomID, playerID, message, emoji string) (*Room, ChatMessage, error) {
	return s.appendChat(roomID, playerID, message, emoji, true)
}

func (s *Store) appendChat(roomID, playerID, message, emoji string, spy bool) (*Room, ChatMessage, error) {
	room, err := s.Room(roomID)
	if err != nil {
		return nil, ChatMessage{}, err
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	p := room.player(playerID)
	if p == nil {
		return nil, ChatMessage{}, ErrPlayerNotFound
	}
	if spy && p.Role != RoleSpy {
		return nil, ChatMessage{}, ErrInvalidTarget
	}
	msg := ChatMessage{
		ID:         uuid.NewString(),
		PlayerID:   playerID,
		PlayerName: p.Name,
		Message:    message,
		Emoji:      emoji,
		Timestamp:  s.now().UnixMilli(),
	}
	if spy {
		room.SpyMessages = append(room.SpyMessages, msg)
	} else {
		room.Messages = append(room.Messages, msg)
	}
	room.UpdatedAt = s.now()
	return room, msg, nil
}
