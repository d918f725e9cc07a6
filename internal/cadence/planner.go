// Package cadence decides which turn a debate needs next.
//
// Every supported cadence length maps to a fixed table of slots. The
// planner never computes side or role from parity: the table is the
// format, and a debate's recorded turns are always a prefix of it.
package cadence

import (
	"errors"
	"fmt"

	"github.com/latestcomment/go-ai-debate/internal/models"
)

// SupportedRounds is the only cadence length the service accepts.
const SupportedRounds = 3

// Slot is one pending turn: its round number, speaking side and phase.
type Slot struct {
	RoundNo int         `json:"round_no"`
	Side    models.Side `json:"side"`
	Role    models.Role `json:"role"`
}

func (s Slot) String() string {
	return fmt.Sprintf("%d-%s-%s", s.RoundNo, s.Side, s.Role)
}

// Speaking order flips at every phase boundary. A opens, so B rebuts first
// and A answers last. In round 4 B answers the question A asked first.
var threeRoundPlan = []Slot{
	{RoundNo: 1, Side: models.SideA, Role: models.RoleOpening},
	{RoundNo: 1, Side: models.SideB, Role: models.RoleOpening},
	{RoundNo: 2, Side: models.SideB, Role: models.RoleRebuttal},
	{RoundNo: 2, Side: models.SideA, Role: models.RoleRebuttal},
	{RoundNo: 3, Side: models.SideA, Role: models.RoleCrossQ},
	{RoundNo: 3, Side: models.SideB, Role: models.RoleCrossQ},
	{RoundNo: 4, Side: models.SideB, Role: models.RoleCrossA},
	{RoundNo: 4, Side: models.SideA, Role: models.RoleCrossA},
	{RoundNo: 5, Side: models.SideA, Role: models.RoleClosing},
	{RoundNo: 5, Side: models.SideB, Role: models.RoleClosing},
}

var plans = map[int][]Slot{
	SupportedRounds: threeRoundPlan,
}

// Plan returns a copy of the slot table for a cadence length.
func Plan(rounds int) ([]Slot, bool) {
	p, ok := plans[rounds]
	if !ok {
		return nil, false
	}
	out := make([]Slot, len(p))
	copy(out, p)
	return out, true
}

// Next returns the slot the debate must fill next. The boolean is false
// once the cadence is complete. Unknown cadence lengths have no slots;
// callers reject them before a debate is created.
func Next(rounds int, turns []models.Turn) (Slot, bool) {
	p := plans[rounds]
	n := len(turns)
	if n >= len(p) {
		return Slot{}, false
	}
	return p[n], true
}

var (
	ErrUnknownCadence = errors.New("cadence: unsupported cadence length")
	ErrHistoryTooLong = errors.New("cadence: history longer than plan")
)

// MismatchError reports a recorded turn that sits in the wrong slot.
type MismatchError struct {
	Index int
	Want  Slot
	Got   Slot
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("cadence: turn %d is %s, plan expects %s", e.Index, e.Got, e.Want)
}

// Validate checks that turns are an exact prefix of the plan. Next does
// not call it; it is for callers that want to refuse a corrupted history.
func Validate(rounds int, turns []models.Turn) error {
	p, ok := plans[rounds]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownCadence, rounds)
	}
	if len(turns) > len(p) {
		return fmt.Errorf("%w: %d turns, plan has %d", ErrHistoryTooLong, len(turns), len(p))
	}
	for i, t := range turns {
		got := Slot{RoundNo: t.RoundNo, Side: t.Side, Role: t.Role}
		if got != p[i] {
			return &MismatchError{Index: i, Want: p[i], Got: got}
		}
	}
	return nil
}
