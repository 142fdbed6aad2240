// FILE: internal/core/api.go
package core

// Request types

type CreateSessionRequest struct {
	FEN       string `json:"fen,omitempty" validate:"omitempty,max=100"`
	Promotion string `json:"promotion,omitempty" validate:"omitempty,oneof=q r b n"`
}

// ClickRequest names a square ("e2") or a visual cell in the session's
// orientation, not both
type ClickRequest struct {
	Square string `json:"square,omitempty" validate:"omitempty,len=2"`
	Row    *int   `json:"row,omitempty" validate:"omitempty,min=0,max=7"`
	Col    *int   `json:"col,omitempty" validate:"omitempty,min=0,max=7"`
}

type LoadRequest struct {
	FEN string `json:"fen" validate:"required,max=100"`
}

type ViewRequest struct {
	Flipped   bool   `json:"flipped"`
	Promotion string `json:"promotion,omitempty" validate:"omitempty,oneof=q r b n"`
}

// Response types

type SessionResponse struct {
	SessionID            string       `json:"sessionId"`
	Token                string       `json:"token,omitempty"` // only on create
	Version              int          `json:"version"`
	FEN                  string       `json:"fen"`
	Turn                 string       `json:"turn"` // "w" or "b"
	Flipped              bool         `json:"flipped"`
	Promotion            string       `json:"promotion"`
	Selected             string       `json:"selected,omitempty"`
	Legal                []string     `json:"legal"`
	Check                bool         `json:"check"`
	Checkmate            bool         `json:"checkmate"`
	Stalemate            bool         `json:"stalemate"`
	Draw                 bool         `json:"draw"`
	ThreefoldRepetition  bool         `json:"threefoldRepetition"`
	InsufficientMaterial bool         `json:"insufficientMaterial"`
	FiftyMoveRule        bool         `json:"fiftyMoveRule"`
	GameOver             bool         `json:"gameOver"`
	Result               string       `json:"result,omitempty"`
	MoveCount            int          `json:"moveCount"`
	Moves                []MoveInfo   `json:"moves"`
	LastMove             *MoveInfo    `json:"lastMove,omitempty"`
	Captured             CapturedInfo `json:"captured"`
	Click                string       `json:"click,omitempty"` // outcome of the click that produced this response
}

type MoveInfo struct {
	From        string `json:"from"`
	To          string `json:"to"`
	SAN         string `json:"san"`
	PlayerColor string `json:"playerColor"` // "w" or "b"
	Piece       string `json:"piece"`
	Captured    string `json:"captured,omitempty"`
	Promotion   string `json:"promotion,omitempty"`
	Flags       string `json:"flags"`
}

type CapturedInfo struct {
	White []string `json:"white"`
	Black []string `json:"black"`
}

type BoardResponse struct {
	FEN     string         `json:"fen"`
	Ply     int            `json:"ply"`
	Flipped bool           `json:"flipped"`
	Board   string         `json:"board"` // ASCII representation
	Rows    [][]SquareInfo `json:"rows"`  // visual order, top row first
}

type SquareInfo struct {
	Square   string `json:"square"`
	Piece    string `json:"piece,omitempty"`
	Dark     bool   `json:"dark"`
	Selected bool   `json:"selected,omitempty"`
	Legal    bool   `json:"legal,omitempty"`
	LastMove bool   `json:"lastMove,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
