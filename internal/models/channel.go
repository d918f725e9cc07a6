package models

import (
	"sync"

	"github.com/google/uuid"
)

// Channel groups the watchers of one debate.
type Channel struct {
	DebateID string
	Clients  map[uuid.UUID]*Client
	Mu       sync.Mutex
}

type ChannelManager struct {
	Channels map[string]*Channel // by debate id
	Mu       sync.Mutex
}

func NewChannelManager() *ChannelManager {
	return &ChannelManager{Channels: make(map[string]*Channel)}
}
