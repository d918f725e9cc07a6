package models

import (
	"sync"

	"github.com/google/uuid"
)

// Conn is the part of a websocket connection the watch stream writes to.
type Conn interface {
	WriteJSON(v interface{}) error
}

// Client is a read-only spectator of one debate.
type Client struct {
	Id       uuid.UUID `json:"clientid"`
	Name     string    `json:"clientname"`
	DebateID string    `json:"debate_id"`
	Conn     Conn      `json:"-"`

	writeMu sync.Mutex
}

// Send writes one JSON message. Websocket connections allow a single
// writer at a time.
func (c *Client) Send(v interface{}) error {
	if c.Conn == nil {
		return nil
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteJSON(v)
}

// SendFirst writes the message built by first while holding the write
// lock for the whole call. Sends that arrive meanwhile are delivered after
// it. Nothing is written when first fails.
func (c *Client) SendFirst(first func() (interface{}, error)) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	v, err := first()
	if err != nil {
		return err
	}
	if c.Conn == nil {
		return nil
	}
	return c.Conn.WriteJSON(v)
}
