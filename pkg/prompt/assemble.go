package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"lorebook/pkg/schema"
)

// Prompt is the pair of messages sent to a model.
type Prompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// Assemble builds the system and user prompts for one entry generation.
// A non-empty customTemplate replaces the built-in output format of mode and
// keeps the detailed thinking scaffold. The result depends only on the inputs.
func Assemble(mode schema.Mode, customTemplate, userPrompt string) Prompt {
	var system string
	switch {
	case customTemplate != "":
		system = customSystemPreamble + "\n" + detailedThinkingTemplate + "\n\n" + customTemplate + "\n\n" + headOverride
	case mode == schema.ModeDetailed:
		system = detailedSystemPrompt + "\n" + detailedThinkingTemplate + "\n" + detailedOutputFormat + "\n" + headOverride
	default:
		system = briefSystemPrompt + "\n" + briefOutputFormat + "\n" + headOverride
	}

	user := priorityDirective + "\n" + userPrompt + "\n" + metadataInstruction + "\n" + tailConfirm

	return Prompt{System: system, User: user}
}

// CharacterList asks for quantity distinct character names from world as a
// bare JSON array, naming the ones that already exist.
func CharacterList(world string, quantity int, exclusions []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "List %d famous distinct character names from %q.", quantity, world)
	if len(exclusions) > 0 {
		data, _ := json.Marshal(exclusions)
		fmt.Fprintf(&sb, "\nIMPORTANT: Do NOT include these characters as they already exist: %s. Find DIFFERENT characters.", data)
	}
	sb.WriteString("\nReturn strictly a JSON array of strings. No markdown formatting.\n")
	sb.WriteString(`Example: ["Name 1", "Name 2"]`)
	return sb.String()
}

// BatchPrompt is the description used for one character of a batch run.
func BatchPrompt(name, world string) string {
	return fmt.Sprintf("Character: %s from the world of %s", name, world)
}
