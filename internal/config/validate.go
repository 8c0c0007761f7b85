package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error reports missing or invalid settings. It is raised before any run starts.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

var validate = validator.New()

// Validate checks struct-level rules and, unless the config is a dry run,
// that the publishing side (blog, hosting, poster) is fully configured.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fieldError(err, "")
	}

	if c.TrendSource == TrendSourceKeywordService && c.KeywordServiceURL == "" {
		return &Error{Field: "KeywordServiceURL", Message: "is required"}
	}

	if c.LocalTemplatePath != "" {
		if _, err := os.Stat(c.LocalTemplatePath); err != nil {
			return &Error{Field: "LocalTemplatePath", Message: fmt.Sprintf("template file not found: %s", c.LocalTemplatePath)}
		}
	}
	if c.LogoPath != "" {
		if _, err := os.Stat(c.LogoPath); err != nil {
			return &Error{Field: "LogoPath", Message: fmt.Sprintf("logo file not found: %s", c.LogoPath)}
		}
	}

	if c.DryRun {
		return nil
	}

	required := map[string]string{
		"ShopifyStoreDomain": c.ShopifyStoreDomain,
		"ShopifyAccessToken": c.ShopifyAccessToken,
		"ShopifyBlogID":      c.ShopifyBlogID,
		"GCSBucket":          c.GCSBucket,
	}
	for _, field := range []string{"ShopifyStoreDomain", "ShopifyAccessToken", "ShopifyBlogID", "GCSBucket"} {
		if strings.TrimSpace(required[field]) == "" {
			return &Error{Field: field, Message: "is required unless dry_run is set"}
		}
	}

	if _, err := c.ResolvePinStrategy(); err != nil {
		return err
	}
	return nil
}

// fieldError converts the first validator failure into an *Error. prefix
// namespaces fields of nested settings structs.
func fieldError(err error, prefix string) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &Error{Field: prefix + fe.Field(), Message: describeTag(fe)}
	}
	return &Error{Message: err.Error()}
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	case "url":
		return fmt.Sprintf("must be a valid URL, got %q", fe.Value())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
