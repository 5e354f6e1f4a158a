package schema

type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderCustom Provider = "custom"
)

func (p Provider) Valid() bool {
	return p == ProviderGemini || p == ProviderCustom
}

// Mode selects a built-in output format.
type Mode string

const (
	ModeBrief    Mode = "brief"
	ModeDetailed Mode = "detailed"
)

// ApiConfig is the connection snapshot handed to the gateway for one call.
type ApiConfig struct {
	Provider Provider `json:"provider"`
	BaseURL  string   `json:"baseUrl,omitempty"`
	APIKey   string   `json:"apiKey,omitempty"`
	Model    string   `json:"model,omitempty"`
}

// Template is a user-authored output format that replaces the built-in one.
// The ids "brief" and "detailed" are reserved for the built-in modes.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// DefaultGeneratedComment is what the parser reports when no name was found.
const DefaultGeneratedComment = "Generated Character"

// GenerationResult is the structured data recovered from a model response.
// Key is never nil.
type GenerationResult struct {
	Key     []string `json:"key"`
	Comment string   `json:"comment"`
	Content string   `json:"content"`
}
