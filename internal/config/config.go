// Package config provides configuration loading and validation for the pipeline.
//
// Values come from three layers: built-in defaults, an optional JSON file and
// environment variables (a .env file is loaded by the CLI). Cobra flags are
// applied last by the command that owns them.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// TrendSource selects the trend backend. Exactly one is active per config.
type TrendSource string

const (
	// TrendSourceBigQuery queries the Google Trends public dataset.
	TrendSourceBigQuery TrendSource = "bigquery"
	// TrendSourceKeywordService calls a remote keyword-service GET endpoint.
	TrendSourceKeywordService TrendSource = "keyword_service"
	// TrendSourceSearchIndex calls the SerpApi Google Trends endpoint.
	TrendSourceSearchIndex TrendSource = "search_index"
)

// Config represents the full pipeline configuration.
type Config struct {
	// General
	LogMode             string   `json:"log_mode,omitempty"`
	DatabaseURL         string   `json:"database_url,omitempty" validate:"required"`
	BrandName           string   `json:"brand_name,omitempty" validate:"required"`
	IndustryKeywords    []string `json:"industry_keywords,omitempty"`
	DryRun              bool     `json:"dry_run,omitempty"`
	AllowTopicReuse     bool     `json:"allow_topic_reuse,omitempty"`
	HTTPTimeoutSeconds  int      `json:"http_timeout_seconds,omitempty" validate:"gte=1"`
	ImageTimeoutSeconds int      `json:"image_timeout_seconds,omitempty" validate:"gte=1"`

	// Trends
	TrendSource             TrendSource `json:"trend_source,omitempty" validate:"required,oneof=bigquery keyword_service search_index"`
	BigQueryProject         string      `json:"bigquery_project,omitempty" validate:"required_if=TrendSource bigquery"`
	BigQueryCredentialsFile string      `json:"bigquery_credentials_file,omitempty"`
	BigQueryRegion          string      `json:"bigquery_region,omitempty"`
	KeywordServiceURL       string      `json:"keyword_service_url,omitempty" validate:"omitempty,url"`
	KeywordServiceSeed      string      `json:"keyword_service_seed,omitempty"`
	SerpAPIKey              string      `json:"serpapi_key,omitempty" validate:"required_if=TrendSource search_index"`
	SerpAPIQuery            string      `json:"serpapi_query,omitempty"`
	SerpAPIGeo              string      `json:"serpapi_geo,omitempty"`

	// Business context
	ContextURL   string `json:"context_url,omitempty" validate:"omitempty,url"`
	ContextToken string `json:"context_token,omitempty"`

	// Content generation and image models
	GeminiAPIKey     string `json:"gemini_api_key,omitempty" validate:"required"`
	GeminiTextModel  string `json:"gemini_text_model,omitempty"`
	GeminiImageModel string `json:"gemini_image_model,omitempty"`

	// Blog CMS
	ShopifyStoreDomain  string `json:"shopify_store_domain,omitempty"`
	ShopifyAccessToken  string `json:"shopify_access_token,omitempty"`
	ShopifyBlogID       string `json:"shopify_blog_id,omitempty"`
	ShopifyBlogHandle   string `json:"shopify_blog_handle,omitempty"`
	ShopifyPublicDomain string `json:"shopify_public_domain,omitempty"`
	ShopifyAPIVersion   string `json:"shopify_api_version,omitempty"`
	BlogDefaultImageURL string `json:"blog_default_image_url,omitempty" validate:"omitempty,url"`

	// Image hosting
	GCSBucket          string `json:"gcs_bucket,omitempty"`
	GCSPrefix          string `json:"gcs_prefix,omitempty"`
	GCSPublicBaseURL   string `json:"gcs_public_base_url,omitempty" validate:"omitempty,url"`
	GCSCredentialsFile string `json:"gcs_credentials_file,omitempty"`

	// Pin creative
	LocalTemplatePath  string   `json:"local_template_path,omitempty"`
	LogoPath           string   `json:"logo_path,omitempty"`
	CanvaClientID      string   `json:"canva_client_id,omitempty"`
	CanvaClientSecret  string   `json:"canva_client_secret,omitempty"`
	CanvaRefreshToken  string   `json:"canva_refresh_token,omitempty"`
	CanvaTemplateIDs   []string `json:"canva_template_ids,omitempty"`
	CanvaTemplatePages int      `json:"canva_template_pages,omitempty" validate:"gte=1"`
	CanvaRecreate      bool     `json:"canva_recreate,omitempty"`

	// Social posting
	AyrshareAPIKey        string `json:"ayrshare_api_key,omitempty"`
	PinterestAccessToken  string `json:"pinterest_access_token,omitempty"`
	PinterestRefreshToken string `json:"pinterest_refresh_token,omitempty"`
	PinterestClientID     string `json:"pinterest_client_id,omitempty"`
	PinterestClientSecret string `json:"pinterest_client_secret,omitempty"`
	PinterestBoardID      string `json:"pinterest_board_id,omitempty"`

	// Server
	Port               int    `json:"port,omitempty"`
	JWTSecret          string `json:"jwt_secret,omitempty"`
	JWTExpirationHours int    `json:"jwt_expiration_hours,omitempty"`
}

// Defaults returns the built-in defaults.
func Defaults() Config {
	return Config{
		LogMode:             "dev",
		HTTPTimeoutSeconds:  15,
		ImageTimeoutSeconds: 90,
		TrendSource:         TrendSourceBigQuery,
		SerpAPIGeo:          "US",
		GeminiTextModel:     "gemini-2.5-flash",
		GeminiImageModel:    "gemini-2.5-flash-image",
		ShopifyBlogHandle:   "news",
		ShopifyAPIVersion:   "2024-10",
		GCSPrefix:           "pins/",
		CanvaTemplatePages:  1,
		Port:                8080,
		JWTExpirationHours:  24,
	}
}

// LoadConfig loads a JSON file on top of Defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Defaults()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &cfg, nil
}

// Load builds the configuration from defaults, the optional JSON file at path
// and the environment, in that order of precedence (environment wins).
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// HTTPTimeout is the timeout for ordinary adapter calls.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// ImageTimeout is the timeout for image generation and editing calls.
func (c *Config) ImageTimeout() time.Duration {
	return time.Duration(c.ImageTimeoutSeconds) * time.Second
}

// CanvaConfigured reports whether the template renderer can be used.
func (c *Config) CanvaConfigured() bool {
	return c.CanvaClientID != "" && c.CanvaClientSecret != "" && c.CanvaRefreshToken != "" && len(c.CanvaTemplateIDs) > 0
}

// PinterestConfigured reports whether direct Pinterest posting can be used.
func (c *Config) PinterestConfigured() bool {
	if c.PinterestBoardID == "" {
		return false
	}
	if c.PinterestAccessToken != "" {
		return true
	}
	return c.PinterestRefreshToken != "" && c.PinterestClientID != "" && c.PinterestClientSecret != ""
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields from environment variables that are set and non-empty.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	str := func(key string, dst *string) {
		if v, ok := get(key); ok {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := get(key); ok {
			*dst = SplitList(v)
		}
	}
	var errs []string
	boolean := func(key string, dst *bool) {
		if v, ok := get(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: invalid boolean %q", key, v))
				return
			}
			*dst = b
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := get(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: invalid integer %q", key, v))
				return
			}
			*dst = n
		}
	}

	str("LOG_MODE", &c.LogMode)
	str("DATABASE_URL", &c.DatabaseURL)
	str("BRAND_NAME", &c.BrandName)
	list("INDUSTRY_KEYWORDS", &c.IndustryKeywords)
	boolean("DRY_RUN", &c.DryRun)
	boolean("ALLOW_TOPIC_REUSE", &c.AllowTopicReuse)
	integer("HTTP_TIMEOUT_SECONDS", &c.HTTPTimeoutSeconds)
	integer("IMAGE_TIMEOUT_SECONDS", &c.ImageTimeoutSeconds)

	if v, ok := get("TREND_SOURCE"); ok {
		c.TrendSource = TrendSource(strings.ToLower(v))
	}
	str("BIGQUERY_PROJECT", &c.BigQueryProject)
	str("BIGQUERY_CREDENTIALS_FILE", &c.BigQueryCredentialsFile)
	str("BIGQUERY_REGION", &c.BigQueryRegion)
	str("KEYWORD_SERVICE_URL", &c.KeywordServiceURL)
	str("KEYWORD_SERVICE_SEED", &c.KeywordServiceSeed)
	str("SERPAPI_KEY", &c.SerpAPIKey)
	str("SERPAPI_QUERY", &c.SerpAPIQuery)
	str("SERPAPI_GEO", &c.SerpAPIGeo)

	str("CONTEXT_URL", &c.ContextURL)
	str("CONTEXT_TOKEN", &c.ContextToken)

	str("GEMINI_API_KEY", &c.GeminiAPIKey)
	str("GEMINI_TEXT_MODEL", &c.GeminiTextModel)
	str("GEMINI_IMAGE_MODEL", &c.GeminiImageModel)

	str("SHOPIFY_STORE_DOMAIN", &c.ShopifyStoreDomain)
	str("SHOPIFY_ACCESS_TOKEN", &c.ShopifyAccessToken)
	str("SHOPIFY_BLOG_ID", &c.ShopifyBlogID)
	str("SHOPIFY_BLOG_HANDLE", &c.ShopifyBlogHandle)
	str("SHOPIFY_PUBLIC_DOMAIN", &c.ShopifyPublicDomain)
	str("SHOPIFY_API_VERSION", &c.ShopifyAPIVersion)
	str("BLOG_DEFAULT_IMAGE_URL", &c.BlogDefaultImageURL)

	str("GCS_BUCKET", &c.GCSBucket)
	str("GCS_PREFIX", &c.GCSPrefix)
	str("GCS_PUBLIC_BASE_URL", &c.GCSPublicBaseURL)
	str("GCS_CREDENTIALS_FILE", &c.GCSCredentialsFile)

	str("LOCAL_TEMPLATE_PATH", &c.LocalTemplatePath)
	str("LOGO_PATH", &c.LogoPath)
	str("CANVA_CLIENT_ID", &c.CanvaClientID)
	str("CANVA_CLIENT_SECRET", &c.CanvaClientSecret)
	str("CANVA_REFRESH_TOKEN", &c.CanvaRefreshToken)
	list("CANVA_TEMPLATE_IDS", &c.CanvaTemplateIDs)
	integer("CANVA_TEMPLATE_PAGES", &c.CanvaTemplatePages)
	boolean("CANVA_RECREATE", &c.CanvaRecreate)

	str("AYRSHARE_API_KEY", &c.AyrshareAPIKey)
	str("PINTEREST_ACCESS_TOKEN", &c.PinterestAccessToken)
	str("PINTEREST_REFRESH_TOKEN", &c.PinterestRefreshToken)
	str("PINTEREST_CLIENT_ID", &c.PinterestClientID)
	str("PINTEREST_CLIENT_SECRET", &c.PinterestClientSecret)
	str("PINTEREST_BOARD_ID", &c.PinterestBoardID)

	integer("PORT", &c.Port)
	str("JWT_SECRET", &c.JWTSecret)
	integer("JWT_EXPIRATION_HOURS", &c.JWTExpirationHours)

	if len(errs) > 0 {
		return &Error{Message: strings.Join(errs, "; ")}
	}
	return nil
}

// SplitList splits a comma-separated value, trimming blanks.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
