package preset

// Preset describes a model offered on the quick-select surface.
type Preset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	Description string `json:"description,omitempty"`
}

// Seed provides the default model list. Any other model name is still accepted.
func Seed() []Preset {
	return []Preset{
		{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", Provider: "OpenAI", Description: "Fast general chat model"},
		{ID: "gpt-4o", Name: "GPT-4o", Provider: "OpenAI", Description: "Multimodal flagship model"},
		{ID: "gpt-4o-mini", Name: "GPT-4o mini", Provider: "OpenAI", Description: "Small multimodal model"},
		{ID: "o1-preview", Name: "o1 preview", Provider: "OpenAI", Description: "Reasoning model"},
		{ID: "o1-mini", Name: "o1 mini", Provider: "OpenAI", Description: "Small reasoning model"},
		{ID: "o3-mini", Name: "o3 mini", Provider: "OpenAI", Description: "Small reasoning model"},
	}
}
