package services

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/latestcomment/go-ai-debate/internal/models"
)

// WatchService fans debate progress out to websocket spectators.
type WatchService struct {
	Manager *models.ChannelManager
	logger  *slog.Logger
	now     func() time.Time
}

func NewWatchService(manager *models.ChannelManager, logger *slog.Logger) *WatchService {
	if manager == nil {
		manager = models.NewChannelManager()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WatchService{Manager: manager, logger: logger, now: time.Now}
}

func (s *WatchService) channel(debateID string, create bool) *models.Channel {
	s.Manager.Mu.Lock()
	defer s.Manager.Mu.Unlock()
	ch := s.Manager.Channels[debateID]
	if ch == nil && create {
		ch = &models.Channel{DebateID: debateID, Clients: make(map[uuid.UUID]*models.Client)}
		s.Manager.Channels[debateID] = ch
	}
	return ch
}

// TranscriptLoader reads a debate and its stored turns.
type TranscriptLoader func() (models.Debate, []models.Turn, error)

// AddClient registers a watcher, then loads and sends the transcript.
// Turns published after registration reach the watcher after the
// transcript, so none is lost; a turn may appear in both and the turn ID
// identifies it. On a load error the watcher is unregistered and nothing
// is sent.
func (s *WatchService) AddClient(c *models.Client, load TranscriptLoader) error {
	var (
		count   int
		loadErr error
	)
	err := c.SendFirst(func() (interface{}, error) {
		ch := s.channel(c.DebateID, true)
		ch.Mu.Lock()
		ch.Clients[c.Id] = c
		count = len(ch.Clients)
		ch.Mu.Unlock()

		debate, turns, err := load()
		if err != nil {
			loadErr = err
			return nil, err
		}
		return models.Message{
			Type:      models.MessageTranscript,
			DebateID:  debate.ID,
			Status:    debate.Status,
			Turns:     turns,
			Timestamp: s.now(),
		}, nil
	})
	if loadErr != nil {
		s.RemoveClient(c)
		return loadErr
	}
	if err != nil {
		s.logger.Debug("watcher write failed", "debate_id", c.DebateID, "client", c.Name, "error", err)
	}
	s.logger.Debug("watcher joined", "debate_id", c.DebateID, "client", c.Name, "watchers", count)
	return nil
}

func (s *WatchService) RemoveClient(c *models.Client) {
	ch := s.channel(c.DebateID, false)
	if ch == nil {
		return
	}
	ch.Mu.Lock()
	delete(ch.Clients, c.Id)
	empty := len(ch.Clients) == 0
	ch.Mu.Unlock()

	if empty {
		s.Manager.Mu.Lock()
		// Re-check under the manager lock; someone may have joined.
		ch.Mu.Lock()
		if len(ch.Clients) == 0 && s.Manager.Channels[c.DebateID] == ch {
			delete(s.Manager.Channels, c.DebateID)
		}
		ch.Mu.Unlock()
		s.Manager.Mu.Unlock()
	}
	s.logger.Debug("watcher left", "debate_id", c.DebateID, "client", c.Name)
}

// Watchers returns how many clients follow a debate.
func (s *WatchService) Watchers(debateID string) int {
	ch := s.channel(debateID, false)
	if ch == nil {
		return 0
	}
	ch.Mu.Lock()
	defer ch.Mu.Unlock()
	return len(ch.Clients)
}

func (s *WatchService) PublishTurn(debateID string, turn models.Turn, status models.Status) {
	s.broadcast(debateID, models.Message{
		Type:      models.MessageTurn,
		DebateID:  debateID,
		Status:    status,
		Turn:      &turn,
		Timestamp: s.now(),
	})
}

func (s *WatchService) PublishStatus(debateID string, status models.Status) {
	s.broadcast(debateID, models.Message{
		Type:      models.MessageStatus,
		DebateID:  debateID,
		Status:    status,
		Timestamp: s.now(),
	})
}

func (s *WatchService) broadcast(debateID string, msg models.Message) {
	ch := s.channel(debateID, false)
	if ch == nil {
		return
	}
	ch.Mu.Lock()
	clients := make([]*models.Client, 0, len(ch.Clients))
	for _, c := range ch.Clients {
		clients = append(clients, c)
	}
	ch.Mu.Unlock()

	for _, c := range clients {
		s.send(c, msg)
	}
}

func (s *WatchService) send(c *models.Client, msg models.Message) {
	if err := c.Send(msg); err != nil {
		s.logger.Debug("watcher write failed", "debate_id", c.DebateID, "client", c.Name, "error", err)
	}
}

// MessageReader is the read half of a websocket connection.
type MessageReader interface {
	ReadMessage() (messageType int, p []byte, err error)
}

// LoopMessages blocks until the watcher disconnects. Watchers are
// read-only, so anything they send is dropped.
func (s *WatchService) LoopMessages(conn MessageReader) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
