package processor

import (
	"chessboard/internal/board"
	"chessboard/internal/core"
	"chessboard/internal/engine"
	"chessboard/internal/service"
)

// BuildSessionResponse converts a service snapshot to its wire form
func BuildSessionResponse(snap service.Snapshot) core.SessionResponse {
	st := snap.State
	resp := core.SessionResponse{
		SessionID:            snap.ID,
		Version:              snap.Version,
		FEN:                  st.FEN,
		Turn:                 st.Turn.String(),
		Flipped:              snap.Flipped,
		Promotion:            snap.Promotion.String(),
		Legal:                squareNames(snap.Legal),
		Check:                st.Check,
		Checkmate:            st.Checkmate,
		Stalemate:            st.Stalemate,
		Draw:                 st.Draw,
		ThreefoldRepetition:  st.ThreefoldRepetition,
		InsufficientMaterial: st.InsufficientMaterial,
		FiftyMoveRule:        st.FiftyMoveRule,
		GameOver:             st.GameOver,
		Result:               st.Result(),
		MoveCount:            st.MoveCount,
		Moves:                make([]core.MoveInfo, len(st.History)),
		Captured: core.CapturedInfo{
			White: st.Captured.White,
			Black: st.Captured.Black,
		},
	}
	if snap.Selection.Valid() {
		resp.Selected = snap.Selection.String()
	}
	for i, m := range st.History {
		resp.Moves[i] = moveInfo(m)
	}
	if st.LastMove != nil {
		last := moveInfo(*st.LastMove)
		resp.LastMove = &last
	}
	return resp
}

// BuildBoardResponse converts a rendered view to its wire form
func BuildBoardResponse(view board.View, fen string, ply int) core.BoardResponse {
	rows := make([][]core.SquareInfo, 8)
	for r := range view.Cells {
		rows[r] = make([]core.SquareInfo, 8)
		for c, sv := range view.Cells[r] {
			rows[r][c] = core.SquareInfo{
				Square:   sv.Name,
				Piece:    sv.Piece,
				Dark:     sv.Dark,
				Selected: sv.Selected,
				Legal:    sv.Legal,
				LastMove: sv.LastMove,
			}
		}
	}
	return core.BoardResponse{
		FEN:     fen,
		Ply:     ply,
		Flipped: view.Flipped,
		Board:   view.ASCII(),
		Rows:    rows,
	}
}

func moveInfo(m engine.MoveRecord) core.MoveInfo {
	return core.MoveInfo{
		From:        m.From.String(),
		To:          m.To.String(),
		SAN:         m.SAN,
		PlayerColor: m.Color.String(),
		Piece:       m.Piece.String(),
		Captured:    m.Captured.String(),
		Promotion:   m.Promotion.String(),
		Flags:       m.Flags,
	}
}

func squareNames(squares []board.Square) []string {
	out := make([]string, len(squares))
	for i, sq := range squares {
		out[i] = sq.String()
	}
	return out
}
