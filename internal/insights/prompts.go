package insights

import (
	"encoding/json"
	"fmt"
	"strings"
)

// buildPrompt embeds the report figures as JSON between fixed instructions.
func buildPrompt(in Input) (string, error) {
	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return "", fmt.Errorf("buildPrompt: marshal input: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a personal finance assistant writing a short monthly review.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Read the analytics report below. All amounts are in the owner's currency.\n")
	b.WriteString("- Write one headline sentence and up to 5 highlights.\n")
	b.WriteString("- Suggest up to 3 concrete actions, e.g. cancelling an unused subscription.\n")
	b.WriteString("- Only use figures that appear in the report. Do not invent numbers.\n\n")
	b.WriteString("Report:\n")
	b.Write(data)
	b.WriteString("\n\n")
	b.WriteString("Output STRICT JSON only with this shape:\n")
	b.WriteString("{\"headline\": string, \"highlights\": [string], \"suggestions\": [string]}\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Output must begin with \"{\" and end with \"}\".\n")

	return b.String(), nil
}
