package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/latestcomment/go-ai-debate/internal/cadence"
	"github.com/latestcomment/go-ai-debate/internal/logging"
	"github.com/latestcomment/go-ai-debate/internal/models"
	"github.com/latestcomment/go-ai-debate/internal/store"
)

type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (string, error)
}

// Guardrail makes generated text safe to persist. It cannot fail.
type Guardrail interface {
	Enforce(ctx context.Context, text string) string
}

// Publisher is told about every stored turn and status change.
type Publisher interface {
	PublishTurn(debateID string, turn models.Turn, status models.Status)
	PublishStatus(debateID string, status models.Status)
}

type DebateConfig struct {
	DefaultStyle      models.StyleTag
	GenerationTimeout time.Duration // 0 leaves the caller's deadline alone
}

// DebateService drives debates one turn at a time. Steps for the same
// debate are serialised; different debates proceed in parallel.
type DebateService struct {
	store  store.Store
	gen    Generator
	guard  Guardrail
	pub    Publisher
	cfg    DebateConfig
	logger *slog.Logger
	locks  *keyedMutex
}

func NewDebateService(st store.Store, gen Generator, guard Guardrail, pub Publisher, cfg DebateConfig, logger *slog.Logger) *DebateService {
	if !cfg.DefaultStyle.Valid() {
		cfg.DefaultStyle = models.StyleWitty
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DebateService{
		store:  st,
		gen:    gen,
		guard:  guard,
		pub:    pub,
		cfg:    cfg,
		logger: logger,
		locks:  newKeyedMutex(),
	}
}

type CreateDebateInput struct {
	Topic    string `json:"topic"`
	StyleTag string `json:"style_tag"`
	Rounds   *int   `json:"rounds"`
}

func (s *DebateService) CreateDebate(ctx context.Context, in CreateDebateInput) (models.Debate, error) {
	// Length is checked on the trimmed topic, which is what gets stored.
	topic := strings.TrimSpace(in.Topic)
	if n := utf8.RuneCountInString(topic); n < 3 || n > 200 {
		return models.Debate{}, invalid("topic", "must be between 3 and 200 characters")
	}

	style := s.cfg.DefaultStyle
	if in.StyleTag != "" {
		style = models.StyleTag(in.StyleTag)
		if !style.Valid() {
			return models.Debate{}, invalid("style_tag", "must be one of witty, academic, chaotic")
		}
	}

	rounds := cadence.SupportedRounds
	if in.Rounds != nil {
		rounds = *in.Rounds
	}
	switch rounds {
	case cadence.SupportedRounds:
	case 5:
		return models.Debate{}, ErrUnsupportedRounds
	default:
		return models.Debate{}, invalid("rounds", "must be 3 or 5")
	}

	d, err := s.store.InsertDebate(ctx, models.Debate{
		Topic:    topic,
		StyleTag: style,
		Rounds:   rounds,
		Status:   models.StatusLive,
	})
	if err != nil {
		return models.Debate{}, fmt.Errorf("create debate: %w", err)
	}
	logging.ForDebate(s.logger, d.ID).Info("debate created", "style", d.StyleTag, "rounds", d.Rounds)
	return d, nil
}

type StepResult struct {
	Turn     *models.Turn  `json:"turn,omitempty"`
	Debate   models.Debate `json:"debate"`
	Turns    []models.Turn `json:"turns"`
	Finished bool          `json:"-"`
}

// Step produces and stores the next turn. When the cadence is already
// complete it only marks the debate finished. A failed generation stores
// nothing and leaves the debate live so the step can be retried.
func (s *DebateService) Step(ctx context.Context, debateID string) (StepResult, error) {
	unlock := s.locks.Lock(debateID)
	defer unlock()

	log := logging.ForDebate(s.logger, debateID)

	debate, err := s.store.GetDebate(ctx, debateID)
	if err != nil {
		return StepResult{}, err
	}
	turns, err := s.store.ListTurns(ctx, debateID)
	if err != nil {
		return StepResult{}, err
	}
	if err := cadence.Validate(debate.Rounds, turns); err != nil {
		log.Error("stored turns do not follow the cadence", "error", err)
		return StepResult{}, fmt.Errorf("%w: %v", ErrCorruptHistory, err)
	}

	next, ok := cadence.Next(debate.Rounds, turns)
	if !ok {
		if err := s.finish(ctx, &debate); err != nil {
			return StepResult{}, err
		}
		return StepResult{Debate: debate, Turns: turns, Finished: true}, nil
	}

	roundName := next.Role.RoundName()
	persona := PersonaFor(debate.StyleTag, next.Side)
	req := models.GenerationRequest{
		System: SystemPrompt(debate.Topic, persona, debate.StyleTag, roundName),
		User:   UserPrompt(LastOpponentText(turns, next.Side), roundName),
	}

	text, err := s.generate(ctx, req)
	if err != nil {
		log.Error("step generation failed", "slot", next.String(), "error", err)
		return StepResult{}, err
	}
	text = s.guard.Enforce(ctx, text)

	turn, err := s.store.InsertTurn(ctx, models.Turn{
		DebateID: debateID,
		RoundNo:  next.RoundNo,
		Side:     next.Side,
		Role:     next.Role,
		Content:  text,
		Tokens:   EstimateTokens(text),
	})
	if err != nil {
		return StepResult{}, fmt.Errorf("store turn: %w", err)
	}
	log.Info("turn stored", "slot", next.String(), "tokens", turn.Tokens)

	nowTurns, err := s.store.ListTurns(ctx, debateID)
	if err != nil {
		return StepResult{}, err
	}
	_, more := cadence.Next(debate.Rounds, nowTurns)
	if !more {
		debate.Status = models.StatusFinished
		if err := s.store.SetDebateStatus(ctx, debateID, models.StatusFinished); err != nil {
			return StepResult{}, fmt.Errorf("finish debate: %w", err)
		}
		log.Info("debate finished", "turns", len(nowTurns))
	}
	if s.pub != nil {
		s.pub.PublishTurn(debateID, turn, debate.Status)
	}

	return StepResult{Turn: &turn, Debate: debate, Turns: nowTurns, Finished: !more}, nil
}

func (s *DebateService) generate(ctx context.Context, req models.GenerationRequest) (string, error) {
	if s.cfg.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.GenerationTimeout)
		defer cancel()
	}
	text, err := s.gen.Generate(ctx, req)
	if err != nil {
		if !errors.Is(err, ErrGeneration) {
			err = fmt.Errorf("%w: %v", ErrGeneration, err)
		}
		return "", err
	}
	return text, nil
}

func (s *DebateService) finish(ctx context.Context, debate *models.Debate) error {
	if debate.Status == models.StatusFinished {
		return nil
	}
	if err := s.store.SetDebateStatus(ctx, debate.ID, models.StatusFinished); err != nil {
		return fmt.Errorf("finish debate: %w", err)
	}
	debate.Status = models.StatusFinished
	if s.pub != nil {
		s.pub.PublishStatus(debate.ID, debate.Status)
	}
	return nil
}

// Run steps a debate until it is finished. onTurn, if set, sees each new
// turn as it is stored.
func (s *DebateService) Run(ctx context.Context, debateID string, onTurn func(models.Turn)) (models.Debate, error) {
	for {
		if err := ctx.Err(); err != nil {
			return models.Debate{}, err
		}
		res, err := s.Step(ctx, debateID)
		if err != nil {
			return models.Debate{}, err
		}
		if res.Turn != nil && onTurn != nil {
			onTurn(*res.Turn)
		}
		if res.Finished {
			return res.Debate, nil
		}
	}
}

type DebateState struct {
	Debate models.Debate `json:"debate"`
	Turns  []models.Turn `json:"turns"`
	Votes  models.Tally  `json:"votes"`
}

func (s *DebateService) GetState(ctx context.Context, debateID string) (DebateState, error) {
	debate, err := s.store.GetDebate(ctx, debateID)
	if err != nil {
		return DebateState{}, err
	}
	turns, err := s.store.ListTurns(ctx, debateID)
	if err != nil {
		return DebateState{}, err
	}
	votes, err := s.store.VoteTally(ctx, debateID)
	if err != nil {
		return DebateState{}, err
	}
	return DebateState{Debate: debate, Turns: turns, Votes: votes}, nil
}

type VoteInput struct {
	DebateID    string `json:"debate_id"`
	Winner      string `json:"winner"`
	Fingerprint string `json:"fingerprint"`
}

func (s *DebateService) RecordVote(ctx context.Context, in VoteInput) (models.Vote, error) {
	if len(in.DebateID) < 10 {
		return models.Vote{}, invalid("debate_id", "must be at least 10 characters")
	}
	winner := models.Side(in.Winner)
	if !winner.Valid() {
		return models.Vote{}, invalid("winner", "must be A or B")
	}
	if n := len(in.Fingerprint); n < 6 || n > 64 {
		return models.Vote{}, invalid("fingerprint", "must be between 6 and 64 characters")
	}
	if _, err := s.store.GetDebate(ctx, in.DebateID); err != nil {
		return models.Vote{}, err
	}
	v, err := s.store.InsertVote(ctx, models.Vote{
		DebateID:    in.DebateID,
		Winner:      winner,
		Fingerprint: in.Fingerprint,
	})
	if err != nil {
		return models.Vote{}, err
	}
	return v, nil
}
