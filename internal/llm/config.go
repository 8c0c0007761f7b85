// Package llm provides the Gemini clients used for structured content
// generation and for image generation and editing.
package llm

const (
	defaultTextModel   = "gemini-2.5-flash"
	defaultImageModel  = "gemini-2.5-flash-image"
	defaultTemperature = 0.7
)

// Config names the models used for copy and for images.
type Config struct {
	TextModel   string
	ImageModel  string
	Temperature float32
}

// NewConfig returns a Config for the given models. Empty names fall back to
// the defaults.
func NewConfig(textModel, imageModel string) Config {
	cfg := Config{TextModel: textModel, ImageModel: imageModel, Temperature: defaultTemperature}
	if cfg.TextModel == "" {
		cfg.TextModel = defaultTextModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = defaultImageModel
	}
	return cfg
}
