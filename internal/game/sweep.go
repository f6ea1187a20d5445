package game

import "time"

// Expired describes one room the deadline sweep forced forward.
type Expired struct {
	Room  *Room
	From  Phase
	To    Phase
	Tally *TallyResult
}

// ExpireDeadlines forces progress in every room whose timed phase has
// run out. Players who stayed silent are treated as having skipped, so
// a dead client can never deadlock a room.
func (s *Store) ExpireDeadlines(now time.Time) []Expired {
	s.mu.RLock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.mu.RUnlock()

	var out []Expired
	for _, r := range rooms {
		r.mu.Lock()
		if r.PhaseDeadline.IsZero() || now.Before(r.PhaseDeadline) {
			r.mu.Unlock()
			continue
		}
		from := r.Status
		exp := Expired{Room: r, From: from}
		switch r.Status {
		case PhaseDrawing, PhaseStory, PhaseOrdering:
			r.Status = PhaseDiscussion
			s.armDeadlineLocked(r, s.discussionTime)
		case PhaseDiscussion:
			s.openBallotLocked(r)
		case PhaseVoting:
			// Tally whatever arrived; non-voters abstain.
			res := s.resolveBallotLocked(r)
			exp.Tally = &res
		default:
			r.PhaseDeadline = time.Time{}
			r.mu.Unlock()
			continue
		}
		exp.To = r.Status
		r.UpdatedAt = now
		r.mu.Unlock()
		out = append(out, exp)
	}
	return out
}

// CleanupReport lists what an idle sweep changed.
type CleanupReport struct {
	DeletedRoomIDs []string
	// Rooms forced to game_over because cleanup dropped them below
	// three active players.
	EndedRooms []*Room
	// Rooms whose roster changed without ending.
	UpdatedRooms []*Room
}

// Cleanup drops rooms past the max-age TTL, rooms whose every player
// has been gone longer than the disconnect grace period, and individual
// players who never came back: lobby seats are removed, in-game seats
// eliminated. Runs on the same one-room-at-a-time mutation path as live
// traffic.
func (s *Store) Cleanup(now time.Time) CleanupReport {
	s.mu.RLock()
	type entry struct {
		id   string
		room *Room
	}
	rooms := make([]entry, 0, len(s.rooms))
	for id, r := range s.rooms {
		rooms = append(rooms, entry{id, r})
	}
	s.mu.RUnlock()

	var report CleanupReport
	for _, e := range rooms {
		r := e.room
		r.mu.Lock()

		if now.Sub(r.CreatedAt) > s.roomTTL {
			r.mu.Unlock()
			s.deleteRoom(e.id)
			report.DeletedRoomIDs = append(report.DeletedRoomIDs, e.id)
			continue
		}

		allGone := len(r.Players) > 0
		for _, p := range r.Players {
			if p.IsConnected || p.DisconnectedAt == nil || now.Sub(*p.DisconnectedAt) <= s.disconnectGrace {
				allGone = false
				break
			}
		}
		if allGone || len(r.Players) == 0 {
			r.mu.Unlock()
			s.deleteRoom(e.id)
			report.DeletedRoomIDs = append(report.DeletedRoomIDs, e.id)
			continue
		}

		changed := false
		for _, p := range append([]*Player(nil), r.Players...) {
			if p.IsConnected || p.DisconnectedAt == nil || now.Sub(*p.DisconnectedAt) <= s.disconnectGrace {
				continue
			}
			if r.Status == PhaseWaiting {
				r.removePlayerLocked(p.ID)
				changed = true
			} else if !p.IsEliminated {
				p.IsEliminated = true
				changed = true
				if r.HostID == p.ID {
					r.reassignHostLocked()
				}
			}
		}
		if !changed {
			r.mu.Unlock()
			continue
		}
		r.UpdatedAt = now
		if len(r.Players) == 0 {
			r.mu.Unlock()
			s.deleteRoom(e.id)
			report.DeletedRoomIDs = append(report.DeletedRoomIDs, e.id)
			continue
		}
		if r.checkForcedEndLocked() {
			report.EndedRooms = append(report.EndedRooms, r)
		} else {
			report.UpdatedRooms = append(report.UpdatedRooms, r)
		}
		r.mu.Unlock()
	}
	return report
}
