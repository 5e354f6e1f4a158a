package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/segmentio/ksuid"

	"lorebook/pkg/schema"
	"lorebook/pkg/utils"
)

// Storage keys, one file each.
const (
	KeyProvider   = "lorebook_api_provider"
	KeyCustomURL  = "lorebook_custom_url"
	KeyCustomKey  = "lorebook_custom_key"
	KeyModel      = "lorebook_custom_model"
	KeyTemplateID = "lorebook_selected_template_id"
	KeyTemplates  = "lorebook_templates"
)

var ErrTemplateInvalid = errors.New("template name and content are required")

// Settings is everything the editor remembers between runs.
type Settings struct {
	Provider    schema.Provider   `json:"provider"`
	CustomURL   string            `json:"customUrl"`
	CustomKey   string            `json:"customKey"`
	CustomModel string            `json:"customModel"`
	TemplateID  string            `json:"templateId"`
	Templates   []schema.Template `json:"templates"`
}

func Default() Settings {
	return Settings{
		Provider:   schema.ProviderGemini,
		TemplateID: string(schema.ModeBrief),
		Templates:  []schema.Template{},
	}
}

// ApiConfig is the connection snapshot for one call.
func (s Settings) ApiConfig() schema.ApiConfig {
	if s.Provider != schema.ProviderCustom {
		return schema.ApiConfig{Provider: schema.ProviderGemini}
	}
	return schema.ApiConfig{
		Provider: schema.ProviderCustom,
		BaseURL:  s.CustomURL,
		APIKey:   s.CustomKey,
		Model:    s.CustomModel,
	}
}

// Resolve maps a template id to a mode and custom format. The built-in ids
// select a mode. Any other id uses that template's content on top of the
// detailed scaffold. Unknown ids fall back to brief.
func (s Settings) Resolve(id string) (schema.Mode, string) {
	switch schema.Mode(id) {
	case schema.ModeBrief, schema.ModeDetailed:
		return schema.Mode(id), ""
	}
	for _, t := range s.Templates {
		if t.ID == id {
			return schema.ModeDetailed, t.Content
		}
	}
	return schema.ModeBrief, ""
}

// AddTemplate stores a new template and selects it.
func (s *Settings) AddTemplate(name, content string) (schema.Template, error) {
	name, content = strings.TrimSpace(name), strings.TrimSpace(content)
	if name == "" || content == "" {
		return schema.Template{}, ErrTemplateInvalid
	}
	t := schema.Template{ID: ksuid.New().String(), Name: name, Content: content}
	s.Templates = append(s.Templates, t)
	s.TemplateID = t.ID
	return t, nil
}

// DeleteTemplate removes a template. Deleting the selected template selects brief.
func (s *Settings) DeleteTemplate(id string) bool {
	i := slices.IndexFunc(s.Templates, func(t schema.Template) bool { return t.ID == id })
	if i < 0 {
		return false
	}
	s.Templates = slices.Delete(s.Templates, i, i+1)
	if s.TemplateID == id {
		s.TemplateID = string(schema.ModeBrief)
	}
	return true
}

// Store keeps each setting in its own JSON file under Dir.
type Store struct {
	Dir string
}

func (st Store) path(key string) string {
	return filepath.Join(st.Dir, key+".json")
}

// load reads one key into v. Missing or corrupt values leave v as it was.
func load[T any](st Store, key string, v *T) {
	path := st.path(key)
	if !utils.Exists(path) {
		return
	}
	got, err := utils.Load[T](path)
	if err != nil {
		log.Warn("ignoring unreadable setting", "key", key, "err", err)
		return
	}
	*v = got
}

// Load reads every key independently, using defaults for missing or
// corrupt values.
func (st Store) Load() Settings {
	s := Default()

	var provider string
	load(st, KeyProvider, &provider)
	if p := schema.Provider(provider); p.Valid() {
		s.Provider = p
	} else if provider != "" {
		log.Warn("ignoring unknown provider", "provider", provider)
	}

	load(st, KeyCustomURL, &s.CustomURL)
	load(st, KeyCustomKey, &s.CustomKey)
	load(st, KeyModel, &s.CustomModel)
	load(st, KeyTemplateID, &s.TemplateID)
	load(st, KeyTemplates, &s.Templates)

	if s.Templates == nil {
		s.Templates = []schema.Template{}
	}
	if s.TemplateID == "" {
		s.TemplateID = string(schema.ModeBrief)
	}
	return s
}

// Save writes every key. Later writes win.
func (st Store) Save(s Settings) error {
	if err := os.MkdirAll(st.Dir, 0o755); err != nil {
		return err
	}
	values := []struct {
		key string
		v   any
	}{
		{KeyProvider, s.Provider},
		{KeyCustomURL, s.CustomURL},
		{KeyCustomKey, s.CustomKey},
		{KeyModel, s.CustomModel},
		{KeyTemplateID, s.TemplateID},
		{KeyTemplates, s.Templates},
	}
	for _, kv := range values {
		if err := utils.Save(st.path(kv.key), kv.v); err != nil {
			return fmt.Errorf("failed to save setting %s: %w", kv.key, err)
		}
	}
	return nil
}
