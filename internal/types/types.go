// Package types defines the JSON wire protocol spoken over the game socket.
//
// Client -> Server
//
//	createSession: {playerName?, selection}
//	joinSession:   {sessionCode, playerName?, selection}
//	submitReady:   {sessionCode, selection}
//	submitChoice:  {sessionCode, cardId, attribute, value}
//
// Server -> Client
//
//	sessionCreated:   {sessionId, sessionCode}                    to creator
//	sessionJoined:    {sessionId, sessionCode, opponent:{name}}   to joiner
//	opponentJoined:   {opponentName}                              to existing member
//	sessionError:     {error}                                     to offender
//	matchStarted:     {players:[{id,name}], currentRound:0}       broadcast
//	opponentReady:    {}                                          to other member
//	opponentSelected: {}                                          to other member
//	roundResolved:    {roundResult, nextRound}                    broadcast
//	matchCompleted:   {rounds, winner, score}                     broadcast
//	opponentLeft:     {}                                          to other member
package types

import "github.com/sphera-labs/sphera-backend/internal/engine"

const (
	MsgCreateSession = "createSession"
	MsgJoinSession   = "joinSession"
	MsgSubmitReady   = "submitReady"
	MsgSubmitChoice  = "submitChoice"

	MsgSessionCreated   = "sessionCreated"
	MsgSessionJoined    = "sessionJoined"
	MsgOpponentJoined   = "opponentJoined"
	MsgSessionError     = "sessionError"
	MsgMatchStarted     = "matchStarted"
	MsgOpponentReady    = "opponentReady"
	MsgOpponentSelected = "opponentSelected"
	MsgRoundResolved    = "roundResolved"
	MsgMatchCompleted   = "matchCompleted"
	MsgOpponentLeft     = "opponentLeft"
)

type ClientMessage struct {
	Type        string   `json:"type"`
	SessionCode string   `json:"sessionCode,omitempty"`
	PlayerName  string   `json:"playerName,omitempty"`
	Selection   []string `json:"selection,omitempty"`
	CardID      string   `json:"cardId,omitempty"`
	Attribute   string   `json:"attribute,omitempty"`
	Value       int      `json:"value,omitempty"`
}

type OpponentInfo struct {
	Name string `json:"name"`
}

type ServerMessage struct {
	Type         string                 `json:"type"`
	SessionID    string                 `json:"sessionId,omitempty"`
	SessionCode  string                 `json:"sessionCode,omitempty"`
	Opponent     *OpponentInfo          `json:"opponent,omitempty"`
	OpponentName string                 `json:"opponentName,omitempty"`
	Players      []engine.PlayerSummary `json:"players,omitempty"`
	CurrentRound *int                   `json:"currentRound,omitempty"`
	RoundResult  *engine.RoundResult    `json:"roundResult,omitempty"`
	NextRound    int                    `json:"nextRound,omitempty"`
	Rounds       []engine.RoundResult   `json:"rounds,omitempty"`
	Winner       string                 `json:"winner,omitempty"`
	Score        string                 `json:"score,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

// ErrorMessage builds the sessionError envelope for a rejected request.
func ErrorMessage(err error) ServerMessage {
	return ServerMessage{Type: MsgSessionError, Error: err.Error()}
}
