package generate

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"lorebook/pkg/inference"
	"lorebook/pkg/lorebook"
	"lorebook/pkg/parse"
	"lorebook/pkg/prompt"
	"lorebook/pkg/schema"
	"lorebook/pkg/utils"
)

const (
	MinQuantity = 1
	MaxQuantity = 10

	PendingContent = "Pending..."
)

// Gateway is the part of the model gateway the generator needs.
type Gateway interface {
	Stream(ctx context.Context, cfg schema.ApiConfig, messages []inference.Message, onChunk func(string)) (string, error)
	ListCharacters(ctx context.Context, world string, quantity int, cfg schema.ApiConfig, exclusions []string) ([]string, error)
}

// Request carries the per-run connection snapshot and output format.
type Request struct {
	Config   schema.ApiConfig
	Mode     schema.Mode
	Template string
}

type EventType string

const (
	EventList   EventType = "list"
	EventEntry  EventType = "entry"
	EventChunk  EventType = "chunk"
	EventDone   EventType = "done"
	EventFailed EventType = "failed"
)

// Event reports progress. Only the fields relevant to Type are set.
type Event struct {
	Type    EventType     `json:"type"`
	UID     int           `json:"uid"`
	Text    string        `json:"text,omitempty"`
	Names   []string      `json:"names,omitempty"`
	Entry   *schema.Entry `json:"entry,omitempty"`
	Added   int           `json:"added,omitempty"`
	Removed int           `json:"removed,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Generator runs single and batch generations against a book, one at a time.
type Generator struct {
	Gateway Gateway
	Book    *lorebook.Book

	mu sync.Mutex
}

func New(gateway Gateway, book *lorebook.Book) *Generator {
	return &Generator{Gateway: gateway, Book: book}
}

func emitter(emit func(Event)) func(Event) {
	if emit == nil {
		return func(Event) {}
	}
	return emit
}

// Single generates content for an existing entry from a free-text prompt.
// The entry's content follows the stream as it arrives, then the parsed
// result is committed.
func (g *Generator) Single(ctx context.Context, uid int, userPrompt string, req Request, emit func(Event)) (schema.Entry, error) {
	if !g.mu.TryLock() {
		return schema.Entry{}, ErrBusy
	}
	defer g.mu.Unlock()

	prev, prevErr := g.Book.Get(uid)
	entry, err := g.single(ctx, uid, userPrompt, req, "", emitter(emit))
	if err != nil && prevErr == nil {
		// The live preview is dropped; a failed run leaves the entry as it was.
		if rerr := g.Book.SetContent(uid, prev.Content); rerr != nil {
			log.Warn("failed to restore entry content", "uid", uid, "err", rerr)
		}
	}
	return entry, err
}

// single runs one generation. A non-empty fallback names the entry when the
// parser found no name of its own.
func (g *Generator) single(ctx context.Context, uid int, userPrompt string, req Request, fallback string, emit func(Event)) (schema.Entry, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return schema.Entry{}, ErrEmptyPrompt
	}
	prev, err := g.Book.Get(uid)
	if err != nil {
		return schema.Entry{}, err
	}

	p := prompt.Assemble(req.Mode, req.Template, userPrompt)

	var live strings.Builder
	onChunk := func(chunk string) {
		live.WriteString(chunk)
		if err := g.Book.SetContent(uid, live.String()); err != nil {
			log.Warn("entry vanished during generation", "uid", uid, "err", err)
			return
		}
		emit(Event{Type: EventChunk, UID: uid, Text: chunk})
	}

	full, err := g.Gateway.Stream(ctx, req.Config, inference.Messages(p), onChunk)
	if err != nil {
		return schema.Entry{}, err
	}

	result := parse.Parse(full)
	entry, err := g.Book.Update(uid, func(e *schema.Entry) {
		commit(e, prev, result, fallback)
	})
	if err != nil {
		return schema.Entry{}, err
	}

	added, removed := utils.WordChanges(prev.Content, entry.Content)
	log.Info("generated entry", "uid", uid, "comment", entry.Comment, "added", added, "removed", removed)
	emit(Event{Type: EventDone, UID: uid, Entry: &entry, Added: added, Removed: removed})
	return entry, nil
}

// commit writes parsed fields over e, keeping prev's value wherever the
// parser came back empty or with its default name.
func commit(e *schema.Entry, prev schema.Entry, result schema.GenerationResult, fallback string) {
	switch {
	case result.Comment != "" && result.Comment != schema.DefaultGeneratedComment:
		e.Comment = result.Comment
	case fallback != "":
		e.Comment = fallback
	default:
		e.Comment = prev.Comment
	}

	switch {
	case len(result.Key) > 0:
		e.Key = result.Key
	case fallback != "":
		e.Key = []string{fallback}
	default:
		e.Key = prev.Key
	}

	if result.Content != "" {
		e.Content = result.Content
	} else {
		e.Content = prev.Content
	}
}

// BatchResult lists what a batch run did.
type BatchResult struct {
	Names   []string       `json:"names"`
	Entries []schema.Entry `json:"entries"`
	Failed  []int          `json:"failed"`
}

// Batch asks for quantity new characters of world and generates an entry for
// each, one after another. A failed character keeps its placeholder and the
// run moves on. Cancelling ctx stops before the next character.
func (g *Generator) Batch(ctx context.Context, world string, quantity int, req Request, emit func(Event)) (BatchResult, error) {
	if !g.mu.TryLock() {
		return BatchResult{}, ErrBusy
	}
	defer g.mu.Unlock()
	emit = emitter(emit)

	world = strings.TrimSpace(world)
	if world == "" {
		return BatchResult{}, ErrEmptyWorld
	}
	quantity = min(max(quantity, MinQuantity), MaxQuantity)

	exclusions := g.Book.Names()
	names, err := g.Gateway.ListCharacters(ctx, world, quantity, req.Config, exclusions)
	if err != nil {
		return BatchResult{}, err
	}
	if len(names) == 0 {
		return BatchResult{}, &EmptyResultError{World: world}
	}
	log.Info("batch character list", "world", world, "names", names, "excluded", len(exclusions))
	emit(Event{Type: EventList, Names: names})

	res := BatchResult{Names: names, Entries: []schema.Entry{}, Failed: []int{}}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		placeholder := g.Book.Create(func(e *schema.Entry) {
			e.Comment = "Generating: " + name + "..."
			e.Content = PendingContent
		})
		emit(Event{Type: EventEntry, UID: placeholder.UID, Entry: &placeholder})

		entry, err := g.single(ctx, placeholder.UID, prompt.BatchPrompt(name, world), req, name, emit)
		if err != nil {
			log.Error("batch character failed", "name", name, "uid", placeholder.UID, "err", err)
			emit(Event{Type: EventFailed, UID: placeholder.UID, Error: err.Error()})
			res.Failed = append(res.Failed, placeholder.UID)
			continue
		}
		res.Entries = append(res.Entries, entry)
	}
	return res, nil
}
