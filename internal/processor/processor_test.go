package processor

import (
	"testing"
	"time"

	"chessboard/internal/core"
	"chessboard/internal/service"

	"go.uber.org/zap/zaptest"
)

func newProcessor(t *testing.T) *Processor {
	t.Helper()
	svc, err := service.New(nil)
	if err != nil {
		t.Fatalf("service.New: %v", err)
	}
	t.Cleanup(func() { svc.Shutdown(time.Second) })
	return New(svc, zaptest.NewLogger(t))
}

func create(t *testing.T, p *Processor, req core.CreateSessionRequest) core.SessionResponse {
	t.Helper()
	resp := p.Execute(NewCreateSessionCommand(req))
	if !resp.Success {
		t.Fatalf("create failed: %+v", resp.Error)
	}
	return resp.Data.(core.SessionResponse)
}

func intp(n int) *int { return &n }

func TestCreateSession(t *testing.T) {
	p := newProcessor(t)

	got := create(t, p, core.CreateSessionRequest{Promotion: "n"})
	if got.SessionID == "" || got.Token == "" {
		t.Errorf("missing id or token: %+v", got)
	}
	if got.Turn != "w" || got.Promotion != "n" || got.MoveCount != 1 || len(got.Legal) != 0 {
		t.Errorf("unexpected session: %+v", got)
	}

	tests := []struct {
		name string
		req  core.CreateSessionRequest
		code string
	}{
		{"malformed fen", core.CreateSessionRequest{FEN: "hello"}, core.ErrInvalidFEN},
		{"control chars", core.CreateSessionRequest{FEN: "8/8/8/8/8/8/8/8 w - - 0 1\n"}, core.ErrInvalidFEN},
		{"short rank", core.CreateSessionRequest{FEN: "7/8/8/8/8/8/8/K6k w - - 0 1"}, core.ErrInvalidFEN},
		{"bad promotion", core.CreateSessionRequest{Promotion: "k"}, core.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := p.Execute(NewCreateSessionCommand(tt.req))
			if resp.Success || resp.Error.Code != tt.code {
				t.Errorf("response = %+v, want code %s", resp, tt.code)
			}
		})
	}
}

func TestClickFlow(t *testing.T) {
	p := newProcessor(t)
	id := create(t, p, core.CreateSessionRequest{}).SessionID

	resp := p.Execute(NewClickCommand(id, core.ClickRequest{Square: "e2"}))
	got := resp.Data.(core.SessionResponse)
	if got.Click != "selected" || got.Selected != "e2" || len(got.Legal) != 2 {
		t.Fatalf("select = %+v", got)
	}

	// unflipped row 4 col 4 is e4
	resp = p.Execute(NewClickCommand(id, core.ClickRequest{Row: intp(4), Col: intp(4)}))
	got = resp.Data.(core.SessionResponse)
	if got.Click != "moved" || got.Turn != "b" || len(got.Moves) != 1 {
		t.Fatalf("move = %+v", got)
	}
	if got.LastMove == nil || got.LastMove.SAN != "e4" || got.LastMove.From != "e2" {
		t.Errorf("last move = %+v", got.LastMove)
	}

	bad := []core.ClickRequest{
		{},
		{Square: "e2", Row: intp(1), Col: intp(1)},
		{Row: intp(1)},
	}
	for _, req := range bad {
		if resp := p.Execute(NewClickCommand(id, req)); resp.Success || resp.Error.Code != core.ErrInvalidRequest {
			t.Errorf("click %+v = %+v", req, resp)
		}
	}
	if resp := p.Execute(NewClickCommand(id, core.ClickRequest{Square: "z9"})); resp.Error == nil || resp.Error.Code != core.ErrInvalidSquare {
		t.Errorf("bad square = %+v", resp)
	}
	if resp := p.Execute(NewClickCommand("missing", core.ClickRequest{Square: "e2"})); resp.Error == nil || resp.Error.Code != core.ErrSessionNotFound {
		t.Errorf("missing session = %+v", resp)
	}
}

func TestUndoLoadReset(t *testing.T) {
	p := newProcessor(t)
	id := create(t, p, core.CreateSessionRequest{}).SessionID

	if resp := p.Execute(NewUndoCommand(id)); resp.Success || resp.Error.Code != core.ErrInvalidMove {
		t.Errorf("undo at start = %+v", resp)
	}

	p.Execute(NewClickCommand(id, core.ClickRequest{Square: "e2"}))
	p.Execute(NewClickCommand(id, core.ClickRequest{Square: "e4"}))
	resp := p.Execute(NewUndoCommand(id))
	if !resp.Success || len(resp.Data.(core.SessionResponse).Moves) != 0 {
		t.Errorf("undo = %+v", resp)
	}

	if resp := p.Execute(NewLoadCommand(id, core.LoadRequest{FEN: "not a fen"})); resp.Error == nil || resp.Error.Code != core.ErrInvalidFEN {
		t.Errorf("bad load = %+v", resp)
	}
	const fen = "4k3/8/8/8/8/8/8/4K2R w K - 0 1"
	resp = p.Execute(NewLoadCommand(id, core.LoadRequest{FEN: fen}))
	if !resp.Success || resp.Data.(core.SessionResponse).FEN != fen {
		t.Errorf("load = %+v", resp)
	}

	resp = p.Execute(NewResetCommand(id))
	if !resp.Success || resp.Data.(core.SessionResponse).MoveCount != 1 {
		t.Errorf("reset = %+v", resp)
	}
}

func TestSetViewAndBoard(t *testing.T) {
	p := newProcessor(t)
	id := create(t, p, core.CreateSessionRequest{}).SessionID

	resp := p.Execute(NewSetViewCommand(id, core.ViewRequest{Flipped: true, Promotion: "b"}))
	got := resp.Data.(core.SessionResponse)
	if !got.Flipped || got.Promotion != "b" {
		t.Errorf("view = %+v", got)
	}

	resp = p.Execute(NewGetBoardCommand(id, nil))
	b := resp.Data.(core.BoardResponse)
	if !b.Flipped || b.Rows[0][0].Square != "h1" || b.Rows[0][0].Piece != "R" {
		t.Errorf("flipped board top-left = %+v", b.Rows[0][0])
	}

	if resp := p.Execute(NewGetBoardCommand(id, intp(0))); !resp.Success {
		t.Errorf("board at ply 0 = %+v", resp.Error)
	}
	if resp := p.Execute(NewGetBoardCommand(id, intp(3))); resp.Success || resp.Error.Code != core.ErrInvalidRequest {
		t.Errorf("board at ply 3 = %+v", resp)
	}
}

func TestDeleteSession(t *testing.T) {
	p := newProcessor(t)
	id := create(t, p, core.CreateSessionRequest{}).SessionID

	if resp := p.Execute(NewDeleteSessionCommand(id)); !resp.Success {
		t.Fatalf("delete = %+v", resp.Error)
	}
	if resp := p.Execute(NewGetSessionCommand(id)); resp.Error == nil || resp.Error.Code != core.ErrSessionNotFound {
		t.Errorf("get after delete = %+v", resp)
	}
	if resp := p.Execute(Command{Type: CommandType(99)}); resp.Success {
		t.Error("unknown command succeeded")
	}
}
