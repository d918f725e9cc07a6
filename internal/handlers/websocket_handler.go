package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/latestcomment/go-ai-debate/internal/models"
	"github.com/latestcomment/go-ai-debate/internal/services"
)

type WebSocketHandler struct {
	Service *services.WatchService
	Debates *services.DebateService
}

func NewWebSocketHandler(service *services.WatchService, debates *services.DebateService) *WebSocketHandler {
	return &WebSocketHandler{Service: service, Debates: debates}
}

func (h *WebSocketHandler) WebSocketMiddleware(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// HandleWebSocket streams one debate to a spectator until it disconnects.
func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	defer func() {
		_ = c.Close()
	}()

	debateID := c.Params("id")
	name := c.Query("name")
	if name == "" {
		name = "Guest"
	}

	client := &models.Client{
		Id:       uuid.New(),
		Name:     name,
		DebateID: debateID,
		Conn:     c,
	}

	err := h.Service.AddClient(client, func() (models.Debate, []models.Turn, error) {
		// The fiber request context is gone once the connection is upgraded.
		state, err := h.Debates.GetState(context.Background(), debateID)
		return state.Debate, state.Turns, err
	})
	if err != nil {
		_ = client.Send(fiber.Map{"type": "error", "error": "not found"})
		return
	}
	h.Service.LoopMessages(c)
	h.Service.RemoveClient(client)
}
