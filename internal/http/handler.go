// FILE: internal/http/handler.go
package http

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"chessboard/internal/core"
	"chessboard/internal/processor"
	"chessboard/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
)

const rateLimitRate = 10 // req/sec

// HTTPHandler handles HTTP requests and routes them to the processor
type HTTPHandler struct {
	proc *processor.Processor
	svc  *service.Service
}

func NewHTTPHandler(proc *processor.Processor, svc *service.Service) *HTTPHandler {
	return &HTTPHandler{proc: proc, svc: svc}
}

func NewFiberApp(proc *processor.Processor, svc *service.Service, devMode bool) *fiber.App {
	h := NewHTTPHandler(proc, svc)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second, // above service.WaitTimeout for long polls
		IdleTimeout:  60 * time.Second,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")

	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 2
	}
	api.Use(limiter.New(limiter.Config{
		Max:        maxReq,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			if xff := c.Get("X-Forwarded-For"); xff != "" {
				if idx := strings.Index(xff, ","); idx != -1 {
					return strings.TrimSpace(xff[:idx])
				}
				return xff
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: fmt.Sprintf("%d requests per second allowed", maxReq),
			})
		},
	}))

	api.Use(contentTypeValidator)
	api.Use(validationMiddleware)

	owner := SessionAuth(svc.ValidateToken)

	api.Post("/sessions", h.CreateSession)
	api.Get("/sessions/:id", h.GetSession)
	api.Get("/sessions/:id/board", h.GetBoard)
	api.Get("/sessions/:id/wait", h.WaitSession)
	api.Get("/sessions/:id/ws", WebSocketUpgrade(), websocket.New(h.StreamSession))
	api.Post("/sessions/:id/clicks", owner, h.Click)
	api.Post("/sessions/:id/undo", owner, h.Undo)
	api.Post("/sessions/:id/reset", owner, h.Reset)
	api.Post("/sessions/:id/load", owner, h.Load)
	api.Put("/sessions/:id/view", owner, h.SetView)
	api.Delete("/sessions/:id", owner, h.DeleteSession)

	return app
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrInternalError,
	}

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		response.Error = e.Message

		switch code {
		case fiber.StatusNotFound:
			response.Code = core.ErrSessionNotFound
		case fiber.StatusBadRequest, fiber.StatusUpgradeRequired:
			response.Code = core.ErrInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

// statusFor maps processor error codes to HTTP status
func statusFor(code string) int {
	switch code {
	case core.ErrSessionNotFound:
		return fiber.StatusNotFound
	case core.ErrUnauthorized:
		return fiber.StatusForbidden
	case core.ErrResourceLimit:
		return fiber.StatusServiceUnavailable
	case core.ErrInternalError:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusBadRequest
	}
}

func reply(c *fiber.Ctx, resp processor.ProcessorResponse, okStatus int) error {
	if !resp.Success {
		return c.Status(statusFor(resp.Error.Code)).JSON(resp.Error)
	}
	if resp.Data == nil {
		return c.SendStatus(okStatus)
	}
	return c.Status(okStatus).JSON(resp.Data)
}

// sessionID reads and checks the :id parameter
func sessionID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	return id, isValidUUID(id)
}

func invalidSessionID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
		Error:   "invalid session ID format",
		Code:    core.ErrInvalidRequest,
		Details: "session ID must be a valid UUID",
	})
}

func bypass(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
		Error: err.Error(),
		Code:  core.ErrInternalError,
	})
}

// Health check endpoint with storage status
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "healthy",
		"time":     time.Now().Unix(),
		"sessions": h.svc.Count(),
		"storage":  h.svc.StorageHealth(),
	})
}

// CreateSession starts a session and returns it with its bearer token
func (h *HTTPHandler) CreateSession(c *fiber.Ctx) error {
	req, err := validatedBody[core.CreateSessionRequest](c)
	if err != nil {
		return bypass(c, err)
	}
	return reply(c, h.proc.Execute(processor.NewCreateSessionCommand(req)), fiber.StatusCreated)
}

// GetSession returns the current session state
func (h *HTTPHandler) GetSession(c *fiber.Ctx) error {
	id, ok := sessionID(c)
	if !ok {
		return invalidSessionID(c)
	}
	return reply(c, h.proc.Execute(processor.NewGetSessionCommand(id)), fiber.StatusOK)
}

// WaitSession long-polls until the session version moves past ?version=
func (h *HTTPHandler) WaitSession(c *fiber.Ctx) error {
	id, ok := sessionID(c)
	if !ok {
		return invalidSessionID(c)
	}

	version, err := strconv.Atoi(c.Query("version", "-1"))
	if err != nil {
		version = -1
	}

	snap, err := h.svc.Wait(c.Context(), id, version)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
			Error: "session not found",
			Code:  core.ErrSessionNotFound,
		})
	}
	return c.JSON(processor.BuildSessionResponse(snap))
}

// GetBoard renders the live board, or a past position with ?ply=
func (h *HTTPHandler) GetBoard(c *fiber.Ctx) error {
	id, ok := sessionID(c)
	if !ok {
		return invalidSessionID(c)
	}

	var ply *int
	if raw := c.Query("ply"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
				Error:   "invalid ply",
				Code:    core.ErrInvalidRequest,
				Details: "ply must be an integer",
			})
		}
		ply = &n
	}
	return reply(c, h.proc.Execute(processor.NewGetBoardCommand(id, ply)), fiber.StatusOK)
}

// Click sends a square or cell click to the session
func (h *HTTPHandler) Click(c *fiber.Ctx) error {
	id, ok := sessionID(c)
	if !ok {
		return invalidSessionID(c)
	}
	req, err := validatedBody[core.ClickRequest](c)
	if err != nil {
		return bypass(c, err)
	}
	return reply(c, h.proc.Execute(processor.NewClickCommand(id, req)), fiber.StatusOK)
}

// Undo takes back the last ply
func (h *HTTPHandler) Undo(c *fiber.Ctx) error {
	id, ok := sessionID(c)
	if !ok {
		return invalidSessionID(c)
	}
	return reply(c, h.proc.Execute(processor.NewUndoCommand(id)), fiber.StatusOK)
}

// Reset starts a new game in the session
func (h *HTTPHandler) Reset(c *fiber.Ctx) error {
	id, ok := sessionID(c)
	if !ok {
		return invalidSessionID(c)
	}
	return reply(c, h.proc.Execute(processor.NewResetCommand(id)), fiber.StatusOK)
}

// Load replaces the session position
func (h *HTTPHandler) Load(c *fiber.Ctx) error {
	id, ok := sessionID(c)
	if !ok {
		return invalidSessionID(c)
	}
	req, err := validatedBody[core.LoadRequest](c)
	if err != nil {
		return bypass(c, err)
	}
	return reply(c, h.proc.Execute(processor.NewLoadCommand(id, req)), fiber.StatusOK)
}

// SetView changes orientation and promotion choice
func (h *HTTPHandler) SetView(c *fiber.Ctx) error {
	id, ok := sessionID(c)
	if !ok {
		return invalidSessionID(c)
	}
	req, err := validatedBody[core.ViewRequest](c)
	if err != nil {
		return bypass(c, err)
	}
	return reply(c, h.proc.Execute(processor.NewSetViewCommand(id, req)), fiber.StatusOK)
}

// DeleteSession ends and cleans up a session
func (h *HTTPHandler) DeleteSession(c *fiber.Ctx) error {
	id, ok := sessionID(c)
	if !ok {
		return invalidSessionID(c)
	}
	return reply(c, h.proc.Execute(processor.NewDeleteSessionCommand(id)), fiber.StatusNoContent)
}
