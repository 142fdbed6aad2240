package core

// Error codes
const (
	ErrSessionNotFound   = "SESSION_NOT_FOUND"
	ErrInvalidMove       = "INVALID_MOVE"
	ErrInvalidSquare     = "INVALID_SQUARE"
	ErrGameOver          = "GAME_OVER"
	ErrRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrInvalidContent    = "INVALID_CONTENT_TYPE"
	ErrInvalidRequest    = "INVALID_REQUEST"
	ErrInvalidFEN        = "INVALID_FEN"
	ErrInternalError     = "INTERNAL_ERROR"
	ErrResourceLimit     = "RESOURCE_LIMIT"
	ErrUnauthorized      = "UNAUTHORIZED"
)
