package config

const (
	// MaxPromptLength is the maximum length of a user prompt, in bytes.
	// Prompts beyond this are almost always paste accidents; the guide
	// providers also enforce their own context limits downstream.
	MaxPromptLength = 8000

	// MaxChatTitleLength is the maximum length for chat titles.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxChatTitleLength = 255

	// MaxFolderNameLength is the maximum length for folder names.
	MaxFolderNameLength = 255

	// MaxContentTitleLength is the maximum length for content titles.
	// Same as folder names for consistency.
	MaxContentTitleLength = 255

	// MaxReportLength is the maximum length of a free-text answer report.
	MaxReportLength = 2000

	// MaxAttachmentBytes is the maximum size of a file attached to a
	// guide search request.
	MaxAttachmentBytes = 5 << 20
)
