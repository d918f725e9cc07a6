package models

import "time"

type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

// Opponent returns the other debating side.
func (s Side) Opponent() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

type Role string

const (
	RoleOpening  Role = "opening"
	RoleRebuttal Role = "rebuttal"
	RoleCrossQ   Role = "crossq"
	RoleCrossA   Role = "crossa"
	RoleClosing  Role = "closing"
)

// RoundName is the human readable phase name used in prompts and pages.
func (r Role) RoundName() string {
	switch r {
	case RoleOpening:
		return "opening"
	case RoleRebuttal:
		return "rebuttal"
	case RoleCrossQ:
		return "cross-examination-question"
	case RoleCrossA:
		return "cross-examination-answer"
	case RoleClosing:
		return "closing"
	default:
		return "opening"
	}
}

type Turn struct {
	ID        string    `json:"id"`
	DebateID  string    `json:"debate_id"`
	RoundNo   int       `json:"round_no"`
	Side      Side      `json:"side"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Tokens    int       `json:"tokens"` // approximate, see services.EstimateTokens
	CreatedAt time.Time `json:"created_at"`
}
