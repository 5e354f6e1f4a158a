package parse

import (
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dlclark/regexp2"
	"github.com/tidwall/gjson"

	"lorebook/pkg/prompt"
	"lorebook/pkg/schema"
	"lorebook/pkg/utils"
)

// suffixes accepted on the output tag. Only the first three are ever requested
// by the prompts; Detail and Brief are still honoured.
const suffixes = `(?:` + prompt.DetailedSuffix + `|` + prompt.BriefSuffix + `|` + prompt.CustomSuffix + `|Detail|Brief)`

var (
	jsonBlockRX = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	thinkingRX  = regexp.MustCompile(`(?is)<` + prompt.ThinkingTag + `>.*?</` + prompt.ThinkingTag + `>`)

	// The closing tag must repeat the opening identifier, which needs a
	// backreference and therefore regexp2 instead of RE2.
	outputTagRX = func() *regexp2.Regexp {
		rx := regexp2.MustCompile(`<(\w+)_`+suffixes+`>([\s\S]*?)</\1_`+suffixes+`>`, regexp2.IgnoreCase)
		rx.MatchTimeout = 2 * time.Second
		return rx
	}()
)

type metadata struct {
	Comment string
	Key     []string
}

// Parse recovers name, keywords and body from a complete model response.
// It never fails: anything it cannot find is left at its default.
func Parse(text string) schema.GenerationResult {
	result := schema.GenerationResult{
		Key:     []string{},
		Comment: schema.DefaultGeneratedComment,
		Content: text,
	}

	block := jsonBlockRX.FindStringSubmatch(text)
	if block != nil {
		if meta, ok := parseMetadata(block[1]); ok {
			if meta.Comment != "" {
				result.Comment = meta.Comment
			}
			result.Key = meta.Key
		}
	}

	if name, body, ok := outputTag(text); ok {
		result.Content = strings.TrimSpace(body)
		if result.Comment == schema.DefaultGeneratedComment {
			result.Comment = strings.ReplaceAll(name, "_", " ")
			result.Key = []string{result.Comment}
		}
		return result
	}

	content := thinkingRX.ReplaceAllString(text, "")
	if block != nil {
		content = strings.Replace(content, block[0], "", 1)
	}
	result.Content = strings.TrimSpace(content)
	return result
}

// parseMetadata reads {"comment": string, "key": [string]} leniently. A bare
// string in place of the key array is accepted as a single keyword.
func parseMetadata(raw string) (metadata, bool) {
	if !gjson.Valid(raw) {
		log.Warn("metadata block is not valid JSON", "block", utils.LimitStr(raw, 120))
		return metadata{}, false
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		log.Warn("metadata block is not an object", "block", utils.LimitStr(raw, 120))
		return metadata{}, false
	}

	meta := metadata{
		Comment: strings.TrimSpace(doc.Get("comment").String()),
		Key:     []string{},
	}
	key := doc.Get("key")
	switch {
	case key.IsArray():
		for _, k := range key.Array() {
			if s := strings.TrimSpace(k.String()); s != "" {
				meta.Key = append(meta.Key, s)
			}
		}
	case key.Type == gjson.String:
		if s := strings.TrimSpace(key.String()); s != "" {
			meta.Key = append(meta.Key, s)
		}
	}
	return meta, true
}

func outputTag(text string) (name, body string, ok bool) {
	m, err := outputTagRX.FindStringMatch(text)
	if err != nil {
		log.Warn("output tag match aborted", "error", err)
		return "", "", false
	}
	if m == nil {
		return "", "", false
	}
	return m.GroupByNumber(1).String(), m.GroupByNumber(2).String(), true
}
