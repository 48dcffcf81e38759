package provider

// Role identifies the author of a Turn in a conversation transcript.
type Role string

// Roles understood by the primary provider's wire format.
const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// FileRef points at provider-hosted media produced by an upload step.
type FileRef struct {
	URI      string `json:"file_uri"`
	MIMEType string `json:"mime_type"`
}

// Part is a flat union representing one piece of content inside a Turn.
// Exactly one of Text or FileData is meaningful.
type Part struct {
	Text     string   `json:"text,omitempty"`
	FileData *FileRef `json:"file_data,omitempty"`
}

// Turn is one message exchanged within a session. Invariant: a Turn always
// has at least one Part — use the constructors to build well-formed Turns.
type Turn struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// NewTextTurn creates a single-part text Turn.
func NewTextTurn(role Role, text string) Turn {
	return Turn{Role: role, Parts: []Part{{Text: text}}}
}

// NewUserTurn creates a user Turn with a text part followed by one file
// part per attachment reference.
func NewUserTurn(text string, refs []FileRef) Turn {
	parts := make([]Part, 0, 1+len(refs))
	parts = append(parts, Part{Text: text})
	for i := range refs {
		ref := refs[i]
		parts = append(parts, Part{FileData: &ref})
	}
	return Turn{Role: RoleUser, Parts: parts}
}

// Text returns the concatenated text of all text parts.
func (t Turn) Text() string {
	var out string
	for _, p := range t.Parts {
		if p.Text != "" {
			if out != "" {
				out += "\n"
			}
			out += p.Text
		}
	}
	return out
}

// GenerationConfig bounds and shapes the primary provider's sampling.
type GenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
}

// DefaultGenerationConfig mirrors the bot's fixed sampling parameters.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		MaxOutputTokens: 10000,
		Temperature:     0.9,
		TopP:            0.95,
		TopK:            64,
	}
}

// SafetySetting configures one content-safety category threshold.
type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// DefaultSafetySettings disables blocking on every category the primary
// provider moderates.
func DefaultSafetySettings() []SafetySetting {
	categories := []string{
		"HARM_CATEGORY_HARASSMENT",
		"HARM_CATEGORY_HATE_SPEECH",
		"HARM_CATEGORY_SEXUALLY_EXPLICIT",
		"HARM_CATEGORY_DANGEROUS_CONTENT",
	}
	settings := make([]SafetySetting, len(categories))
	for i, c := range categories {
		settings[i] = SafetySetting{Category: c, Threshold: "BLOCK_NONE"}
	}
	return settings
}

// GenerateRequest is the input to a Generator.Generate call: the full
// ordered transcript replayed to the provider plus generation parameters.
type GenerateRequest struct {
	Turns  []Turn           `json:"contents"`
	Config GenerationConfig `json:"generation_config"`
	Safety []SafetySetting  `json:"safetySettings,omitempty"`
}

// Candidate is one ranked answer returned by the primary provider.
type Candidate struct {
	Turn Turn `json:"content"`
}

// Outcome classifies how a turn was answered.
type Outcome string

// Outcome values, ordered from best to worst.
const (
	// OutcomePrimary means the primary provider answered with full context.
	OutcomePrimary Outcome = "primary"
	// OutcomeFallback means the stateless fallback answered; nothing persisted.
	OutcomeFallback Outcome = "fallback"
	// OutcomeFailed means both providers failed; Text carries the apology.
	OutcomeFailed Outcome = "failed"
)

// Result is the terminal outcome of a Chain.Answer call.
type Result struct {
	Text    string
	Outcome Outcome
}
