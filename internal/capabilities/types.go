package capabilities

// ModelCapabilities describes what one guide model supports.
type ModelCapabilities struct {
	Name                string `yaml:"name" json:"name"`
	Provider            string `yaml:"provider" json:"provider"`
	MaxAnswerTokens     int    `yaml:"max_answer_tokens" json:"max_answer_tokens"`
	SupportsAttachments bool   `yaml:"supports_attachments" json:"supports_attachments"`
}

// ProviderCapabilities is one provider's section of the registry file.
type ProviderCapabilities struct {
	Provider string              `yaml:"provider"`
	Models   []ModelCapabilities `yaml:"models"`
}
