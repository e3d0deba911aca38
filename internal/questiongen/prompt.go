package questiongen

import (
	"fmt"
	"strings"
)

const systemPrompt = `You write questions for a personality assessment.

Rules:
- Each question is multiple choice with options A, B, C and D, and optionally E. Leave E empty when four options are enough.
- Options describe how a person might act, feel or prefer. None is right or wrong, and each should reveal something different about the respondent.
- Keep question text under 300 characters and each option under 120 characters.
- Make the questions psychologically probing but never clinical, offensive or intrusive.
- Do not repeat or paraphrase any question from the "already asked" list.`

// buildUserMessage constructs the user message from GenerateInput and Config limits.
func buildUserMessage(input GenerateInput, count int, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Category: %s\n", input.Category.Label())
	fmt.Fprintf(&b, "Number of questions: %d\n", count)

	b.WriteString("\nAlready asked:\n")
	b.WriteString(buildDedup(input.PriorQuestions, cfg.MaxPriorQuestions))

	return b.String()
}
