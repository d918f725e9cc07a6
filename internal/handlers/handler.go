package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/latestcomment/go-ai-debate/internal/cadence"
	"github.com/latestcomment/go-ai-debate/internal/models"
	"github.com/latestcomment/go-ai-debate/internal/services"
	"github.com/latestcomment/go-ai-debate/internal/store"
)

type Handler struct {
	Debates *services.DebateService
	logger  *slog.Logger
}

func NewHandler(debates *services.DebateService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Debates: debates, logger: logger}
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}

func (h *Handler) CreateDebate(c *fiber.Ctx) error {
	var in services.CreateDebateInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	debate, err := h.Debates.CreateDebate(c.UserContext(), in)
	if err != nil {
		h.logger.Warn("create debate failed", "error", err)
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"debate": debate})
}

// StepDebate advances a debate by one turn.
func (h *Handler) StepDebate(c *fiber.Ctx) error {
	res, err := h.Debates.Step(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	if res.Turn == nil {
		return c.JSON(fiber.Map{"status": "finished", "debate": res.Debate, "turns": res.Turns})
	}
	return c.JSON(fiber.Map{"turn": res.Turn, "debate": res.Debate, "turns": res.Turns})
}

func (h *Handler) GetDebate(c *fiber.Ctx) error {
	state, err := h.Debates.GetState(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(state)
}

func (h *Handler) RecordVote(c *fiber.Ctx) error {
	var in services.VoteInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid vote"})
	}
	vote, err := h.Debates.RecordVote(c.UserContext(), in)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"vote": vote})
}

// DebatePage renders the transcript for people, not clients.
func (h *Handler) DebatePage(c *fiber.Ctx) error {
	state, err := h.Debates.GetState(c.UserContext(), c.Params("id"))
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).SendString("Debate not found")
	}
	if err != nil {
		return h.writeError(c, err)
	}
	plan, _ := cadence.Plan(state.Debate.Rounds)
	return c.Render("debate", fiber.Map{
		"Debate":    state.Debate,
		"Turns":     state.Turns,
		"Votes":     state.Votes,
		"PlanTotal": len(plan),
		"Live":      state.Debate.Status != models.StatusFinished,
	})
}

func (h *Handler) writeError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": verr.Error()})
	case errors.Is(err, services.ErrUnsupportedRounds):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	case errors.Is(err, store.ErrDuplicateVote):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already voted"})
	case errors.Is(err, services.ErrCorruptHistory):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "debate history is inconsistent"})
	case errors.Is(err, services.ErrGeneration):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "generation failed"})
	default:
		h.logger.Error("request failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
