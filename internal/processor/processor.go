// FILE: internal/processor/processor.go
package processor

import (
	"errors"
	"fmt"
	"regexp"
	"unicode"

	"chessboard/internal/board"
	"chessboard/internal/core"
	"chessboard/internal/engine"
	"chessboard/internal/game"
	"chessboard/internal/service"

	"go.uber.org/zap"
)

// FEN shape check before the position reaches the rules backend
var fenPattern = regexp.MustCompile(`^[rnbqkpRNBQKP1-8/]+ [wb] [KQkq-]+ [a-h1-8-]+ \d+ \d+$`)

// Processor handles command execution against the session service
type Processor struct {
	svc *service.Service
	log *zap.Logger
}

// New creates a processor; a nil logger discards diagnostics
func New(svc *service.Service, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{svc: svc, log: logger}
}

func (p *Processor) Execute(cmd Command) ProcessorResponse {
	switch cmd.Type {
	case CmdCreateSession:
		return p.handleCreateSession(cmd)
	case CmdGetSession:
		return p.handleGetSession(cmd)
	case CmdDeleteSession:
		return p.handleDeleteSession(cmd)
	case CmdClick:
		return p.handleClick(cmd)
	case CmdUndo:
		return p.handleUndo(cmd)
	case CmdReset:
		return p.handleReset(cmd)
	case CmdLoad:
		return p.handleLoad(cmd)
	case CmdSetView:
		return p.handleSetView(cmd)
	case CmdGetBoard:
		return p.handleGetBoard(cmd)
	default:
		return p.errorResponse("unknown command", core.ErrInvalidRequest)
	}
}

// isFENSafe rejects control characters and anything not shaped like a FEN
func isFENSafe(fen string) bool {
	for _, r := range fen {
		if unicode.IsControl(r) {
			return false
		}
	}
	return fenPattern.MatchString(fen)
}

func parsePromotion(s string) (board.PieceType, bool) {
	if s == "" {
		return board.NoPieceType, true
	}
	return board.ParsePromotion(s)
}

func (p *Processor) handleCreateSession(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.CreateSessionRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	if args.FEN != "" && !isFENSafe(args.FEN) {
		return p.errorResponse("invalid FEN format or characters", core.ErrInvalidFEN)
	}
	promo, ok := parsePromotion(args.Promotion)
	if !ok {
		return p.errorResponse("invalid promotion piece", core.ErrInvalidRequest)
	}

	snap, err := p.svc.CreateSession(args.FEN, promo)
	if err != nil {
		return p.serviceError(err)
	}

	token, err := p.svc.IssueToken(snap.ID)
	if err != nil {
		p.log.Error("token generation failed", zap.String("session", snap.ID), zap.Error(err))
		_ = p.svc.Delete(snap.ID)
		return p.errorResponse("failed to generate token", core.ErrInternalError)
	}

	resp := BuildSessionResponse(snap)
	resp.Token = token
	return ProcessorResponse{Success: true, Data: resp}
}

func (p *Processor) handleGetSession(cmd Command) ProcessorResponse {
	snap, err := p.svc.Get(cmd.SessionID)
	if err != nil {
		return p.serviceError(err)
	}
	return ProcessorResponse{Success: true, Data: BuildSessionResponse(snap)}
}

func (p *Processor) handleDeleteSession(cmd Command) ProcessorResponse {
	if err := p.svc.Delete(cmd.SessionID); err != nil {
		return p.serviceError(err)
	}
	return ProcessorResponse{Success: true}
}

func (p *Processor) handleClick(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.ClickRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	var (
		res  game.ClickResult
		snap service.Snapshot
		err  error
	)
	switch {
	case args.Square != "" && args.Row == nil && args.Col == nil:
		sq, perr := board.ParseSquare(args.Square)
		if perr != nil {
			return p.errorResponse(fmt.Sprintf("invalid square %q", args.Square), core.ErrInvalidSquare)
		}
		res, snap, err = p.svc.Click(cmd.SessionID, sq)
	case args.Square == "" && args.Row != nil && args.Col != nil:
		res, snap, err = p.svc.ClickCell(cmd.SessionID, board.Cell{Row: *args.Row, Col: *args.Col})
	default:
		return p.errorResponse("provide either square or row and col", core.ErrInvalidRequest)
	}
	if err != nil {
		return p.serviceError(err)
	}

	resp := BuildSessionResponse(snap)
	resp.Click = res.String()
	return ProcessorResponse{Success: true, Data: resp}
}

func (p *Processor) handleUndo(cmd Command) ProcessorResponse {
	_, ok, err := p.svc.Undo(cmd.SessionID)
	if err != nil {
		return p.serviceError(err)
	}
	if !ok {
		return p.errorResponse("no moves to undo", core.ErrInvalidMove)
	}
	return p.handleGetSession(cmd)
}

func (p *Processor) handleReset(cmd Command) ProcessorResponse {
	snap, err := p.svc.Reset(cmd.SessionID)
	if err != nil {
		return p.serviceError(err)
	}
	return ProcessorResponse{Success: true, Data: BuildSessionResponse(snap)}
}

func (p *Processor) handleLoad(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.LoadRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	if !isFENSafe(args.FEN) {
		return p.errorResponse("invalid FEN format or characters", core.ErrInvalidFEN)
	}

	snap, err := p.svc.Load(cmd.SessionID, args.FEN)
	if err != nil {
		return p.serviceError(err)
	}
	return ProcessorResponse{Success: true, Data: BuildSessionResponse(snap)}
}

func (p *Processor) handleSetView(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.ViewRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	promo, ok := parsePromotion(args.Promotion)
	if !ok {
		return p.errorResponse("invalid promotion piece", core.ErrInvalidRequest)
	}

	snap, err := p.svc.SetView(cmd.SessionID, args.Flipped, promo)
	if err != nil {
		return p.serviceError(err)
	}
	return ProcessorResponse{Success: true, Data: BuildSessionResponse(snap)}
}

func (p *Processor) handleGetBoard(cmd Command) ProcessorResponse {
	args, _ := cmd.Args.(BoardArgs)

	if args.Ply == nil {
		snap, err := p.svc.Get(cmd.SessionID)
		if err != nil {
			return p.serviceError(err)
		}
		plies := len(snap.State.History)
		return ProcessorResponse{Success: true, Data: BuildBoardResponse(snap.Board, snap.State.FEN, plies)}
	}

	view, fen, err := p.svc.BoardAt(cmd.SessionID, *args.Ply)
	if err != nil {
		return p.serviceError(err)
	}
	return ProcessorResponse{Success: true, Data: BuildBoardResponse(view, fen, *args.Ply)}
}

// serviceError maps domain errors to API error codes
func (p *Processor) serviceError(err error) ProcessorResponse {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return p.errorResponse("session not found", core.ErrSessionNotFound)
	case errors.Is(err, service.ErrSessionLimit):
		return p.errorResponse("session limit reached", core.ErrResourceLimit)
	case errors.Is(err, engine.ErrInvalidPosition):
		return p.errorResponseDetails("invalid FEN", core.ErrInvalidFEN, err.Error())
	case errors.Is(err, board.ErrInvalidCell), errors.Is(err, board.ErrInvalidSquare):
		return p.errorResponseDetails("invalid square", core.ErrInvalidSquare, err.Error())
	case errors.Is(err, game.ErrPlyOutOfRange):
		return p.errorResponseDetails("ply out of range", core.ErrInvalidRequest, err.Error())
	default:
		p.log.Error("command failed", zap.Error(err))
		return p.errorResponse("internal error", core.ErrInternalError)
	}
}

// errorResponse creates error response
func (p *Processor) errorResponse(message, code string) ProcessorResponse {
	return p.errorResponseDetails(message, code, "")
}

func (p *Processor) errorResponseDetails(message, code, details string) ProcessorResponse {
	return ProcessorResponse{
		Success: false,
		Error: &core.ErrorResponse{
			Error:   message,
			Code:    code,
			Details: details,
		},
	}
}
