package inference

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"

	"lorebook/pkg/utils"
)

// characterNames reads a JSON array of names out of a model answer, dropping
// non-strings, blanks, duplicates and excluded names, and keeping at most limit.
func characterNames(text string, exclusions []string, limit int) []string {
	raw := strings.ReplaceAll(text, "```json", "")
	raw = strings.ReplaceAll(raw, "```", "")
	raw = strings.TrimSpace(raw)

	if !gjson.Valid(raw) {
		log.Warn("character list is not valid JSON", "text", utils.LimitStr(raw, 200))
		return []string{}
	}
	list := gjson.Parse(raw)
	if !list.IsArray() {
		log.Warn("character list is not an array", "text", utils.LimitStr(raw, 200))
		return []string{}
	}

	skip := make(map[string]struct{}, len(exclusions))
	for _, e := range exclusions {
		skip[e] = struct{}{}
	}

	names := []string{}
	for _, item := range list.Array() {
		if item.Type != gjson.String {
			continue
		}
		name := strings.TrimSpace(item.String())
		if name == "" {
			continue
		}
		if _, ok := skip[name]; ok {
			continue
		}
		skip[name] = struct{}{}
		names = append(names, name)
		if limit > 0 && len(names) == limit {
			break
		}
	}
	return names
}
