package config

// CreativeKind names one pin-creative strategy.
type CreativeKind string

const (
	// CreativeLocalTemplate overlays the headline on a local template image.
	CreativeLocalTemplate CreativeKind = "local_template"
	// CreativeRawGeneration generates a raw image from text.
	CreativeRawGeneration CreativeKind = "raw_generation"
	// CreativeTemplateRender renders the raw image into a Canva template.
	CreativeTemplateRender CreativeKind = "template_render"
	// CreativeRecreate cleans up a template render using the raw photo as reference.
	CreativeRecreate CreativeKind = "recreate"
)

// PosterKind names the social-posting adapter.
type PosterKind string

const (
	// PosterAggregator posts through the Ayrshare aggregator.
	PosterAggregator PosterKind = "aggregator"
	// PosterDirectTemplated posts directly to Pinterest by image URL.
	PosterDirectTemplated PosterKind = "direct_templated"
	// PosterDirectRaw posts directly to Pinterest with the raw image bytes.
	PosterDirectRaw PosterKind = "direct_raw"
)

// PinStrategy is resolved once at startup and drives the creative and
// posting steps without re-checking individual settings.
type PinStrategy struct {
	Creative []CreativeKind
	Poster   PosterKind
}

// Has reports whether kind is part of the creative chain.
func (s PinStrategy) Has(kind CreativeKind) bool {
	for _, k := range s.Creative {
		if k == kind {
			return true
		}
	}
	return false
}

// ResolvePinStrategy derives the creative chain and poster from the
// configured integrations. Poster precedence: aggregator, then templated
// direct posting, then raw direct posting.
func (c *Config) ResolvePinStrategy() (PinStrategy, error) {
	var s PinStrategy
	if c.LocalTemplatePath != "" {
		s.Creative = append(s.Creative, CreativeLocalTemplate)
	}
	s.Creative = append(s.Creative, CreativeRawGeneration)
	if c.CanvaConfigured() {
		s.Creative = append(s.Creative, CreativeTemplateRender)
		if c.CanvaRecreate {
			s.Creative = append(s.Creative, CreativeRecreate)
		}
	}

	switch {
	case c.AyrshareAPIKey != "":
		s.Poster = PosterAggregator
	case c.PinterestConfigured() && c.CanvaConfigured():
		s.Poster = PosterDirectTemplated
	case c.PinterestConfigured():
		s.Poster = PosterDirectRaw
	default:
		if !c.DryRun {
			return s, &Error{Field: "Poster", Message: "no social poster configured (set AYRSHARE_API_KEY or PINTEREST_* settings)"}
		}
	}
	return s, nil
}
