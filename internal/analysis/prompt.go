package analysis

import (
	"fmt"
	"strings"
)

// DefaultItems is the standard topic set applied when a request names no
// custom items.
var DefaultItems = []string{
	"Overall Summary",
	"Key Discussion Topics",
	"Participant Attitudes",
	"Positive Opinions",
	"Negative Opinions",
	"Unmet Needs",
	"Purchase Drivers",
	"Usage Barriers",
	"Competitor Mentions",
	"Improvement Suggestions",
	"Notable Quotes",
	"Follow-up Questions",
}

// defaultItemsCopy returns a fresh slice so callers can't mutate the shared set.
func defaultItemsCopy() []string {
	items := make([]string, len(DefaultItems))
	copy(items, DefaultItems)
	return items
}

// BuildSystemPrompt renders the system instruction for the given mode and
// item list. The model must answer with a JSON object whose keys are exactly
// the requested items, in the requested order.
func BuildSystemPrompt(mode Mode, items []string) string {
	var b strings.Builder

	switch mode {
	case ModePhase2:
		b.WriteString("You are a senior qualitative researcher synthesizing interview findings. " +
			"Go beyond surface observations: identify patterns, tensions, and implications " +
			"across the transcript.\n\n")
	default:
		b.WriteString("You are a qualitative researcher analyzing an interview transcript. " +
			"Read the transcript carefully and report what the participants actually said.\n\n")
	}

	b.WriteString("Analyze the transcript and report on each of the following items:\n")
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}

	b.WriteString("\nRespond with ONLY a JSON object. Its keys must be exactly the item names above, " +
		"in the same order, and each value must be a string with your finding for that item. " +
		"If the transcript offers nothing for an item, say so in the value. " +
		"No markdown, no code blocks, no explanations. Start with { and end with }.")
	return b.String()
}
