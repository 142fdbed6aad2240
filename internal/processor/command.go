// FILE: internal/processor/command.go
package processor

import (
	"chessboard/internal/core"
)

// CommandType defines the type of command being executed
type CommandType int

const (
	CmdCreateSession CommandType = iota
	CmdGetSession
	CmdDeleteSession
	CmdClick
	CmdUndo
	CmdReset
	CmdLoad
	CmdSetView
	CmdGetBoard
)

// Command is a unified structure for all processor operations
type Command struct {
	Type      CommandType
	SessionID string
	Args      any // Command-specific arguments
}

// ProcessorResponse wraps the response with metadata
type ProcessorResponse struct {
	Success bool                `json:"success"`
	Data    any                 `json:"data,omitempty"`
	Error   *core.ErrorResponse `json:"error,omitempty"`
}

// BoardArgs selects a history ply; nil means the live position
type BoardArgs struct {
	Ply *int
}

func NewCreateSessionCommand(req core.CreateSessionRequest) Command {
	return Command{
		Type: CmdCreateSession,
		Args: req,
	}
}

func NewGetSessionCommand(sessionID string) Command {
	return Command{
		Type:      CmdGetSession,
		SessionID: sessionID,
	}
}

func NewDeleteSessionCommand(sessionID string) Command {
	return Command{
		Type:      CmdDeleteSession,
		SessionID: sessionID,
	}
}

func NewClickCommand(sessionID string, req core.ClickRequest) Command {
	return Command{
		Type:      CmdClick,
		SessionID: sessionID,
		Args:      req,
	}
}

func NewUndoCommand(sessionID string) Command {
	return Command{
		Type:      CmdUndo,
		SessionID: sessionID,
	}
}

func NewResetCommand(sessionID string) Command {
	return Command{
		Type:      CmdReset,
		SessionID: sessionID,
	}
}

func NewLoadCommand(sessionID string, req core.LoadRequest) Command {
	return Command{
		Type:      CmdLoad,
		SessionID: sessionID,
		Args:      req,
	}
}

func NewSetViewCommand(sessionID string, req core.ViewRequest) Command {
	return Command{
		Type:      CmdSetView,
		SessionID: sessionID,
		Args:      req,
	}
}

func NewGetBoardCommand(sessionID string, ply *int) Command {
	return Command{
		Type:      CmdGetBoard,
		SessionID: sessionID,
		Args:      BoardArgs{Ply: ply},
	}
}
