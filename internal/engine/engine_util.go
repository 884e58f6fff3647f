package engine

import "slices"

// clone returns a Session whose slices are safe to mutate without the input
// observing it.
func clone(s Session) Session {
	newState := s
	newState.Players = slices.Clone(s.Players)
	for i := range newState.Players {
		newState.Players[i].UsedStats = slices.Clone(newState.Players[i].UsedStats)
	}
	newState.Rounds = slices.Clone(s.Rounds)
	return newState
}

// seat returns the member index for a connection, or -1.
func (s Session) seat(connID string) int {
	for i := range s.Players {
		if s.Players[i].ID == connID {
			return i
		}
	}
	return -1
}

// Opponent returns the other member of a two-seat session. It reports false
// when the connection is not a member or no second member has joined yet.
func (s Session) Opponent(connID string) (*Player, bool) {
	idx := s.seat(connID)
	if idx == -1 || len(s.Players) < 2 {
		return nil, false
	}
	return &s.Players[1-idx], true
}

func summaries(players []Player) []PlayerSummary {
	out := make([]PlayerSummary, len(players))
	for i, p := range players {
		out[i] = PlayerSummary{ID: p.ID, Name: p.Name}
	}
	return out
}

func winsFor(rounds []RoundResult, id string) int {
	wins := 0
	for _, r := range rounds {
		if r.Winner == id {
			wins++
		}
	}
	return wins
}

func defaultName(name, connID string) string {
	if name != "" {
		return name
	}
	short := connID
	if len(short) > 4 {
		short = short[:4]
	}
	return "Player " + short
}
