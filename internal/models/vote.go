package models

import "time"

type Vote struct {
	ID          string    `json:"id"`
	DebateID    string    `json:"debate_id"`
	Winner      Side      `json:"winner"`
	Fingerprint string    `json:"fingerprint"` // one vote per fingerprint per debate
	CreatedAt   time.Time `json:"created_at"`
}

type Tally struct {
	A int `json:"A"`
	B int `json:"B"`
}

// Add counts one vote for the given side.
func (t *Tally) Add(side Side) {
	switch side {
	case SideA:
		t.A++
	case SideB:
		t.B++
	}
}
