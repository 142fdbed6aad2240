package http

import (
	"context"

	"chessboard/internal/core"
	"chessboard/internal/processor"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketUpgrade admits only websocket upgrade requests for a well-formed
// session id
func WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if !isValidUUID(c.Params("id")) {
			return invalidSessionID(c)
		}
		return c.Next()
	}
}

// StreamSession pushes a snapshot on connect and after every change until the
// client disconnects or the session is deleted. The stream is read only.
func (h *HTTPHandler) StreamSession(conn *websocket.Conn) {
	id := conn.Params("id")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// reader detects the client going away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	version := -1
	for {
		snap, err := h.svc.Wait(ctx, id, version)
		if err != nil {
			_ = conn.WriteJSON(core.ErrorResponse{
				Error: "session not found",
				Code:  core.ErrSessionNotFound,
			})
			return
		}
		if ctx.Err() != nil {
			return
		}
		if snap.Version == version {
			continue
		}
		if err := conn.WriteJSON(processor.BuildSessionResponse(snap)); err != nil {
			return
		}
		version = snap.Version
	}
}
