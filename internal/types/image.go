package types

// Image is raw image bytes with their MIME type.
type Image struct {
	Data     []byte
	MIMEType string
}

// Empty reports whether the image carries no bytes.
func (i *Image) Empty() bool {
	return i == nil || len(i.Data) == 0
}

// Extension returns a file extension matching the MIME type.
func (i *Image) Extension() string {
	switch i.MIMEType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// Render is the result of a template render.
type Render struct {
	URL    string `json:"render_url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// PublishedArticle is the blog CMS response to a created article.
type PublishedArticle struct {
	ID           string `json:"id"`
	Handle       string `json:"handle"`
	CanonicalURL string `json:"canonical_url"`
}

// PinRequest is the payload sent to a social poster.
type PinRequest struct {
	Title       string
	Description string
	Link        string
	ImageURL    string
	Image       *Image
}

// PublishedPin is the social poster response.
type PublishedPin struct {
	ExternalID string `json:"externalId"`
	PublicLink string `json:"publicLink"`
}
