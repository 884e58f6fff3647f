package engine

import (
	"errors"
	"fmt"
)

var ErrInvalidInput = errors.New("invalid game data")
var ErrSessionFull = errors.New("game is full")
var ErrNotMember = errors.New("connection is not a member")
var ErrMatchOver = errors.New("match already completed")
var ErrUnsupportedCommand = errors.New("unsupported command")

// WinnerDraw marks a tied round or match in place of a participant id.
const WinnerDraw = "draw"

// RoundsPerMatch is fixed: a match is exactly three rounds, draws included.
const RoundsPerMatch = 3

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusPlaying   Status = "playing"
	StatusCompleted Status = "completed"
)

type Player struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Cards     []string `json:"cards"`
	Ready     bool     `json:"ready"`
	UsedStats []string `json:"usedStats"`
	// Selection is the in-flight choice for the current round. It stays
	// hidden from the opponent until both selections are in.
	Selection *StatChoice `json:"-"`
}

// StatChoice is one participant's submission for the current round.
type StatChoice struct {
	CardID    string `json:"cardId"`
	Attribute string `json:"attribute"`
	Value     int    `json:"value"`
}

// ChoiceSnapshot is a StatChoice frozen into a RoundResult, tagged with the
// submitting participant.
type ChoiceSnapshot struct {
	ID        string `json:"id"`
	CardID    string `json:"cardId"`
	Attribute string `json:"attribute"`
	Value     int    `json:"value"`
}

// RoundResult is the immutable record of one resolved round. Players are
// ordered by seat (creator first), not by submission order.
type RoundResult struct {
	Players [2]ChoiceSnapshot `json:"players"`
	Winner  string            `json:"winner"`
}

type PlayerSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Session is the full state of one match. It is owned by a single session
// actor; Apply never mutates its input.
type Session struct {
	ID           string
	Code         string
	Status       Status
	Players      []Player
	Rounds       []RoundResult
	CurrentRound int
}

// NewSession builds a Waiting session with the creator seated and ready.
// The creator supplies its final card selection at creation; the joiner
// supplies one later via CmdReady.
func NewSession(id, code string, creator Command) (Session, error) {
	if creator.ConnID == "" || len(creator.Selection) == 0 {
		return Session{}, ErrInvalidInput
	}
	return Session{
		ID:     id,
		Code:   code,
		Status: StatusWaiting,
		Players: []Player{{
			ID:        creator.ConnID,
			Name:      defaultName(creator.Name, creator.ConnID),
			Cards:     creator.Selection,
			Ready:     true,
			UsedStats: []string{},
		}},
		Rounds: []RoundResult{},
	}, nil
}

type CommandType string

const (
	CmdJoin     CommandType = "Join"
	CmdReady    CommandType = "Ready"
	CmdPickStat CommandType = "PickStat"
	CmdLeave    CommandType = "Leave"
)

type Command struct {
	Type      CommandType
	ConnID    string
	Name      string
	Selection []string
	CardID    string
	Attribute string
	Value     int
}

type EventType string

const (
	EvtSessionJoined    EventType = "SessionJoined"
	EvtOpponentJoined   EventType = "OpponentJoined"
	EvtMatchStarted     EventType = "MatchStarted"
	EvtOpponentReady    EventType = "OpponentReady"
	EvtOpponentSelected EventType = "OpponentSelected"
	EvtRoundResolved    EventType = "RoundResolved"
	EvtMatchCompleted   EventType = "MatchCompleted"
	EvtOpponentLeft     EventType = "OpponentLeft"
)

// Event is an outbound notification produced by Apply. To names the
// receiving connection; empty means every session member.
type Event struct {
	Type         EventType
	To           string
	OpponentName string
	Players      []PlayerSummary
	Round        int
	Result       *RoundResult
	Rounds       []RoundResult
	Winner       string
	Score        string
}

// Apply runs one command against a session and returns the outbound events
// plus the new state. On error the returned state is the unchanged input.
func Apply(s Session, cmd Command) ([]Event, Session, error) {
	switch cmd.Type {
	case CmdJoin:
		return applyJoin(s, cmd)
	case CmdReady:
		return applyReady(s, cmd)
	case CmdPickStat:
		return applyPickStat(s, cmd)
	case CmdLeave:
		return applyLeave(s, cmd)
	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func applyJoin(s Session, cmd Command) ([]Event, Session, error) {
	if len(s.Players) >= 2 {
		return nil, s, ErrSessionFull
	}
	name := defaultName(cmd.Name, cmd.ConnID)

	newState := clone(s)
	newState.Players = append(newState.Players, Player{
		ID:        cmd.ConnID,
		Name:      name,
		Cards:     cmd.Selection,
		Ready:     false,
		UsedStats: []string{},
	})

	events := []Event{
		{Type: EvtOpponentJoined, To: s.Players[0].ID, OpponentName: name},
		{Type: EvtSessionJoined, To: cmd.ConnID, OpponentName: s.Players[0].Name},
	}
	return events, newState, nil
}

func applyReady(s Session, cmd Command) ([]Event, Session, error) {
	idx := s.seat(cmd.ConnID)
	if idx == -1 {
		return nil, s, ErrNotMember
	}
	if s.Status != StatusWaiting {
		// The Waiting->Playing edge fires once; a repeat ready is stale.
		return nil, s, nil
	}

	newState := clone(s)
	newState.Players[idx].Cards = cmd.Selection
	newState.Players[idx].Ready = true

	if len(newState.Players) == 2 && newState.Players[0].Ready && newState.Players[1].Ready {
		newState.Status = StatusPlaying
		return []Event{{
			Type:    EvtMatchStarted,
			Players: summaries(newState.Players),
			Round:   0,
		}}, newState, nil
	}

	if other, ok := newState.Opponent(cmd.ConnID); ok {
		return []Event{{Type: EvtOpponentReady, To: other.ID}}, newState, nil
	}
	return nil, newState, nil
}

func applyPickStat(s Session, cmd Command) ([]Event, Session, error) {
	idx := s.seat(cmd.ConnID)
	if idx == -1 {
		return nil, s, ErrNotMember
	}
	if s.Status == StatusCompleted {
		return nil, s, ErrMatchOver
	}
	if s.Status != StatusPlaying {
		// A pick before the match starts leaves no trace; nothing it records
		// may carry into round 1.
		return nil, s, nil
	}

	newState := clone(s)
	newState.Players[idx].Selection = &StatChoice{
		CardID:    cmd.CardID,
		Attribute: cmd.Attribute,
		Value:     cmd.Value,
	}
	newState.Players[idx].UsedStats = append(newState.Players[idx].UsedStats, cmd.Attribute)

	// Playing implies both seats are filled.
	other, _ := newState.Opponent(cmd.ConnID)
	events := []Event{{Type: EvtOpponentSelected, To: other.ID}}
	if other.Selection == nil {
		return events, newState, nil
	}
	return resolveRound(newState, events)
}

// resolveRound runs once both selections are in: snapshot the choices in
// seat order, pick the round winner by strict numeric comparison, and either
// advance the round or complete the match.
func resolveRound(s Session, events []Event) ([]Event, Session, error) {
	p1, p2 := &s.Players[0], &s.Players[1]

	result := RoundResult{
		Players: [2]ChoiceSnapshot{
			{ID: p1.ID, CardID: p1.Selection.CardID, Attribute: p1.Selection.Attribute, Value: p1.Selection.Value},
			{ID: p2.ID, CardID: p2.Selection.CardID, Attribute: p2.Selection.Attribute, Value: p2.Selection.Value},
		},
		Winner: WinnerDraw,
	}
	if p1.Selection.Value > p2.Selection.Value {
		result.Winner = p1.ID
	} else if p2.Selection.Value > p1.Selection.Value {
		result.Winner = p2.ID
	}

	s.Rounds = append(s.Rounds, result)
	s.CurrentRound++
	p1.Selection = nil
	p2.Selection = nil

	if len(s.Rounds) >= RoundsPerMatch {
		s.Status = StatusCompleted
		p1Wins := winsFor(s.Rounds, p1.ID)
		p2Wins := winsFor(s.Rounds, p2.ID)

		winner := WinnerDraw
		if p1Wins > p2Wins {
			winner = p1.ID
		} else if p2Wins > p1Wins {
			winner = p2.ID
		}

		events = append(events, Event{
			Type:   EvtMatchCompleted,
			Rounds: s.Rounds,
			Winner: winner,
			Score:  fmt.Sprintf("%d-%d", p1Wins, p2Wins),
		})
		return events, s, nil
	}

	events = append(events, Event{
		Type:   EvtRoundResolved,
		Result: &result,
		Round:  s.CurrentRound,
	})
	return events, s, nil
}

func applyLeave(s Session, cmd Command) ([]Event, Session, error) {
	if s.seat(cmd.ConnID) == -1 {
		return nil, s, ErrNotMember
	}
	// The member stays seated: rounds and status must survive a mid-match
	// disconnect unchanged. Pre-match cleanup is the store's call.
	if other, ok := s.Opponent(cmd.ConnID); ok {
		return []Event{{Type: EvtOpponentLeft, To: other.ID}}, s, nil
	}
	return nil, s, nil
}
