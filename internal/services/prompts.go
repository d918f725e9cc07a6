package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/latestcomment/go-ai-debate/internal/models"
)

const noPriorContext = "(no prior context)"

type Persona struct {
	Name  string
	Voice string
}

var personas = map[models.StyleTag]map[models.Side]Persona{
	models.StyleWitty: {
		models.SideA: {Name: "Sunny Quip", Voice: "playful, quick with a pun, never mean"},
		models.SideB: {Name: "Dry Wit", Voice: "deadpan, understated, fond of a well placed aside"},
	},
	models.StyleAcademic: {
		models.SideA: {Name: "Professor Proposition", Voice: "measured, cites principles, defines terms first"},
		models.SideB: {Name: "Doctor Counterpoint", Voice: "rigorous, probes assumptions, weighs evidence"},
	},
	models.StyleChaotic: {
		models.SideA: {Name: "Captain Tangent", Voice: "energetic, wild analogies that somehow land"},
		models.SideB: {Name: "The Contrarian Gremlin", Voice: "mischievous, flips every premise upside down"},
	},
}

var styleTone = map[models.StyleTag]string{
	models.StyleWitty:    "Keep it light and clever.",
	models.StyleAcademic: "Keep it structured and precise.",
	models.StyleChaotic:  "Keep it surprising but on topic.",
}

var roundGuidance = map[string]string{
	"opening":                    "State your position and your two strongest reasons.",
	"rebuttal":                   "Answer your opponent's last point directly, then reinforce your case.",
	"cross-examination-question": "Ask your opponent one pointed question that exposes a weakness.",
	"cross-examination-answer":   "Answer the question you were asked honestly, then turn it to your advantage.",
	"closing":                    "Summarise why your side won the exchange. No new arguments.",
}

// PersonaFor picks the speaker persona for a style and side.
func PersonaFor(style models.StyleTag, side models.Side) Persona {
	if bySide, ok := personas[style]; ok {
		if p, ok := bySide[side]; ok {
			return p
		}
	}
	return personas[models.StyleWitty][side]
}

func SystemPrompt(topic string, persona Persona, style models.StyleTag, roundName string) string {
	lines := []string{
		fmt.Sprintf("You are %s, a debater with a %s voice.", persona.Name, persona.Voice),
		fmt.Sprintf("The debate topic is: %q.", topic),
		fmt.Sprintf("This is the %s round. %s", roundName, roundGuidance[roundName]),
		styleTone[style],
		"Stay PG-13, attack ideas not people, and answer in under 150 words.",
	}
	return strings.Join(lines, "\n")
}

func UserPrompt(oppLast, roundName string) string {
	return fmt.Sprintf("Your opponent last said:\n\"\"\"%s\"\"\"\n\nGive your %s now.", oppLast, roundName)
}

// LastOpponentText returns the latest content spoken by the other side.
func LastOpponentText(turns []models.Turn, next models.Side) string {
	opp := next.Opponent()
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Side == opp {
			return turns[i].Content
		}
	}
	return noPriorContext
}

// EstimateTokens approximates tokens as one per four characters.
func EstimateTokens(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}
