// Package templater renders pin images through Canva brand templates:
// upload the photo, autofill the template layers, export a page as PNG.
package templater

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/pin-pipeline/internal/fetch"
	"github.com/jonathan/pin-pipeline/internal/imagegen"
	"github.com/jonathan/pin-pipeline/internal/oauth"
	"github.com/jonathan/pin-pipeline/internal/types"
)

// DefaultBaseURL is the Canva Connect REST API.
const DefaultBaseURL = "https://api.canva.com/rest"

// Job statuses.
const (
	statusInProgress = "in_progress"
	statusSuccess    = "success"
	statusFailed     = "failed"
)

// Options configures the renderer.
type Options struct {
	BaseURL      string
	PollInterval time.Duration
	MaxPolls     int
}

// Canva renders brand templates.
type Canva struct {
	client *fetch.Client
	tokens *oauth.Cache
	opts   Options
	sleep  func(context.Context, time.Duration) error
}

// NewCanva creates a renderer whose access tokens come from tokens.
func NewCanva(client *fetch.Client, tokens *oauth.Cache, opts Options) *Canva {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.MaxPolls <= 0 {
		opts.MaxPolls = 60
	}
	return &Canva{client: client, tokens: tokens, opts: opts, sleep: sleepCtx}
}

// Request is one render.
type Request struct {
	TemplateID string
	// Page is 1-based.
	Page     int
	Headline string
	Brand    string
	Photo    types.Image
}

// Result is the exported render plus its downloaded bytes.
type Result struct {
	Render types.Render
	Image  types.Image
}

// Layer is one autofillable field of a brand template.
type Layer struct {
	Name string
	Type string // text, image or chart
}

type job struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Asset *struct {
		ID string `json:"id"`
	} `json:"asset,omitempty"`
	Result *struct {
		Design struct {
			ID string `json:"id"`
		} `json:"design"`
	} `json:"result,omitempty"`
	URLs []string `json:"urls,omitempty"`
}

type jobEnvelope struct {
	Job *job `json:"job"`
}

// Layers lists the template's autofillable layers, sorted by name.
func (c *Canva) Layers(ctx context.Context, templateID string) ([]Layer, error) {
	var resp struct {
		Dataset map[string]struct {
			Type string `json:"type"`
		} `json:"dataset"`
	}
	target := fmt.Sprintf("%s/v1/brand-templates/%s/dataset", c.opts.BaseURL, templateID)
	if err := c.call(ctx, fetch.Request{URL: target}, &resp); err != nil {
		return nil, err
	}
	if resp.Dataset == nil {
		return nil, fetch.NewSchemaError(target, "template has no dataset", nil)
	}
	layers := make([]Layer, 0, len(resp.Dataset))
	for name, field := range resp.Dataset {
		layers = append(layers, Layer{Name: name, Type: field.Type})
	}
	sortLayers(layers)
	return layers, nil
}

// Render fills the template and exports the requested page.
func (c *Canva) Render(ctx context.Context, req Request) (*Result, error) {
	layers, err := c.Layers(ctx, req.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("list template layers: %w", err)
	}

	assetID := ""
	if needsImage(layers) && !req.Photo.Empty() {
		assetID, err = c.uploadAsset(ctx, req.Photo)
		if err != nil {
			return nil, fmt.Errorf("upload asset: %w", err)
		}
	}

	data := MapLayers(layers, req.Headline, req.Brand, assetID)
	if len(data) == 0 {
		return nil, fmt.Errorf("template %s has no layers for headline or image", req.TemplateID)
	}

	designID, err := c.autofill(ctx, req.TemplateID, data)
	if err != nil {
		return nil, fmt.Errorf("autofill: %w", err)
	}

	exportURL, err := c.export(ctx, designID, req.Page)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	body, contentType, err := c.client.Bytes(ctx, exportURL)
	if err != nil {
		return nil, fmt.Errorf("download export: %w", err)
	}
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = "image/png"
	}
	img := types.Image{Data: body, MIMEType: contentType}
	w, h, err := imagegen.Dimensions(img)
	if err != nil {
		return nil, fetch.NewSchemaError(exportURL, "export is not an image", err)
	}

	return &Result{
		Render: types.Render{URL: exportURL, Width: w, Height: h},
		Image:  img,
	}, nil
}

// MapLayers assigns values to template layers by name: headline/title text
// layers get the headline, brand/logo text layers the brand, image layers
// the uploaded asset. When nothing matches by name the first text layer
// takes the headline and the first image layer the asset.
func MapLayers(layers []Layer, headline, brand, assetID string) map[string]any {
	data := make(map[string]any)
	var firstText, firstImage string
	headlineSet, imageSet := false, false

	for _, l := range layers {
		name := strings.ToLower(l.Name)
		switch l.Type {
		case "text":
			if firstText == "" {
				firstText = l.Name
			}
			switch {
			case containsAny(name, "headline", "title", "heading"):
				data[l.Name] = textField(headline)
				headlineSet = true
			case containsAny(name, "brand", "logo", "store"):
				if brand != "" {
					data[l.Name] = textField(brand)
				}
			}
		case "image":
			if firstImage == "" {
				firstImage = l.Name
			}
			if assetID != "" && containsAny(name, "image", "photo", "background", "picture") {
				data[l.Name] = imageField(assetID)
				imageSet = true
			}
		}
	}

	if !headlineSet && firstText != "" {
		data[firstText] = textField(headline)
	}
	if !imageSet && assetID != "" && firstImage != "" {
		data[firstImage] = imageField(assetID)
	}
	return data
}

func textField(v string) map[string]string {
	return map[string]string{"type": "text", "text": v}
}

func imageField(assetID string) map[string]string {
	return map[string]string{"type": "image", "asset_id": assetID}
}

func needsImage(layers []Layer) bool {
	for _, l := range layers {
		if l.Type == "image" {
			return true
		}
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func (c *Canva) uploadAsset(ctx context.Context, img types.Image) (string, error) {
	meta, err := json.Marshal(map[string]string{
		"name_base64": base64.StdEncoding.EncodeToString([]byte("pin-photo" + img.Extension())),
	})
	if err != nil {
		return "", err
	}
	var env jobEnvelope
	err = c.call(ctx, fetch.Request{
		Method:      "POST",
		URL:         c.opts.BaseURL + "/v1/asset-uploads",
		Body:        img.Data,
		ContentType: "application/octet-stream",
		Headers:     map[string]string{"Asset-Upload-Metadata": string(meta)},
	}, &env)
	if err != nil {
		return "", err
	}
	done, err := c.await(ctx, "/v1/asset-uploads/", env.Job)
	if err != nil {
		return "", err
	}
	if done.Asset == nil || done.Asset.ID == "" {
		return "", fetch.NewSchemaError(c.opts.BaseURL+"/v1/asset-uploads", "upload job has no asset", nil)
	}
	return done.Asset.ID, nil
}

func (c *Canva) autofill(ctx context.Context, templateID string, data map[string]any) (string, error) {
	var env jobEnvelope
	err := c.call(ctx, fetch.Request{
		Method: "POST",
		URL:    c.opts.BaseURL + "/v1/autofills",
		JSON: map[string]any{
			"brand_template_id": templateID,
			"data":              data,
		},
	}, &env)
	if err != nil {
		return "", err
	}
	done, err := c.await(ctx, "/v1/autofills/", env.Job)
	if err != nil {
		return "", err
	}
	if done.Result == nil || done.Result.Design.ID == "" {
		return "", fetch.NewSchemaError(c.opts.BaseURL+"/v1/autofills", "autofill job has no design", nil)
	}
	return done.Result.Design.ID, nil
}

func (c *Canva) export(ctx context.Context, designID string, page int) (string, error) {
	if page < 1 {
		page = 1
	}
	var env jobEnvelope
	err := c.call(ctx, fetch.Request{
		Method: "POST",
		URL:    c.opts.BaseURL + "/v1/exports",
		JSON: map[string]any{
			"design_id": designID,
			"format":    map[string]any{"type": "png", "pages": []int{page}},
		},
	}, &env)
	if err != nil {
		return "", err
	}
	done, err := c.await(ctx, "/v1/exports/", env.Job)
	if err != nil {
		return "", err
	}
	if len(done.URLs) == 0 {
		return "", fetch.NewSchemaError(c.opts.BaseURL+"/v1/exports", "export job has no urls", nil)
	}
	return done.URLs[0], nil
}

// await polls path+id until the job leaves in_progress.
func (c *Canva) await(ctx context.Context, path string, j *job) (*job, error) {
	target := c.opts.BaseURL + path
	if j == nil || j.ID == "" {
		return nil, fetch.NewSchemaError(target, "response has no job", nil)
	}
	for attempt := 0; ; attempt++ {
		switch j.Status {
		case statusSuccess:
			return j, nil
		case statusFailed:
			msg := "job failed"
			if j.Error != nil {
				msg = fmt.Sprintf("job failed: %s: %s", j.Error.Code, j.Error.Message)
			}
			return nil, fmt.Errorf("canva %s%s: %s", path, j.ID, msg)
		case statusInProgress, "":
		default:
			return nil, fetch.NewSchemaError(target+j.ID, "unknown job status "+j.Status, nil)
		}
		if attempt >= c.opts.MaxPolls {
			return nil, &fetch.Error{URL: target + j.ID, Kind: fetch.KindTimeout, Message: "job did not finish"}
		}
		if err := c.sleep(ctx, c.opts.PollInterval); err != nil {
			return nil, &fetch.Error{URL: target + j.ID, Kind: fetch.KindTimeout, Message: "polling cancelled", Cause: err}
		}

		var env jobEnvelope
		if err := c.call(ctx, fetch.Request{URL: target + j.ID}, &env); err != nil {
			return nil, err
		}
		if env.Job == nil {
			return nil, fetch.NewSchemaError(target+j.ID, "response has no job", nil)
		}
		if env.Job.ID == "" {
			env.Job.ID = j.ID
		}
		j = env.Job
	}
}

// call adds the bearer token and retries once with a fresh token on 401.
func (c *Canva) call(ctx context.Context, req fetch.Request, out any) error {
	for attempt := 0; attempt < 2; attempt++ {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}
		headers := map[string]string{"Authorization": "Bearer " + token}
		for k, v := range req.Headers {
			headers[k] = v
		}
		r := req
		r.Headers = headers

		err = c.client.JSON(ctx, r, out)
		var fe *fetch.Error
		if attempt == 0 && asStatus(err, &fe) && fe.StatusCode == 401 {
			c.tokens.Invalidate()
			continue
		}
		return err
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
