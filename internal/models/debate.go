package models

import "time"

type Status string

const (
	StatusLive     Status = "live"
	StatusFinished Status = "finished"
)

type StyleTag string

const (
	StyleWitty    StyleTag = "witty"
	StyleAcademic StyleTag = "academic"
	StyleChaotic  StyleTag = "chaotic"
)

// Valid reports whether the tag is one of the known persona styles.
func (s StyleTag) Valid() bool {
	switch s {
	case StyleWitty, StyleAcademic, StyleChaotic:
		return true
	}
	return false
}

type Debate struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	StyleTag  StyleTag  `json:"style_tag"`
	Rounds    int       `json:"rounds"` // cadence length, not the number of turns
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
