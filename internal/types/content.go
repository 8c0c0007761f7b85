package types

// GeneratedContent is the structured output of the content generator.
type GeneratedContent struct {
	Blog   BlogContent   `json:"blog"`
	Social SocialContent `json:"social"`
}

// BlogContent holds the article fields sent to the blog CMS.
type BlogContent struct {
	Title           string `json:"title"`
	BodyHTML        string `json:"bodyHtml"`
	MetaTitle       string `json:"metaTitle"`
	MetaDescription string `json:"metaDescription"`
}

// SocialContent holds the pin headline and description.
type SocialContent struct {
	Headline    string `json:"headline"`
	Description string `json:"description"`
}

// ContentRequest is the input to content generation.
type ContentRequest struct {
	Primary        string
	Supporting     []string
	BrandName      string
	ContextSummary string
}
