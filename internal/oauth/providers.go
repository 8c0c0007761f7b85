package oauth

import "golang.org/x/oauth2"

// Provider endpoints.
var (
	PinterestEndpoint = oauth2.Endpoint{
		AuthURL:   "https://www.pinterest.com/oauth/",
		TokenURL:  "https://api.pinterest.com/v5/oauth/token",
		AuthStyle: oauth2.AuthStyleInHeader,
	}
	CanvaEndpoint = oauth2.Endpoint{
		AuthURL:   "https://www.canva.com/api/oauth/authorize",
		TokenURL:  "https://api.canva.com/rest/v1/oauth/token",
		AuthStyle: oauth2.AuthStyleInHeader,
	}
)

// PinterestScopes are the scopes needed to create pins.
var PinterestScopes = []string{"boards:read", "pins:read", "pins:write"}

// CanvaScopes are the scopes needed for autofill and export.
var CanvaScopes = []string{
	"asset:write",
	"brandtemplate:meta:read",
	"brandtemplate:content:read",
	"design:content:read",
	"design:content:write",
}

// PinterestConfig builds the oauth2 config for Pinterest.
func PinterestConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     PinterestEndpoint,
		RedirectURL:  redirectURL,
		Scopes:       PinterestScopes,
	}
}

// CanvaConfig builds the oauth2 config for Canva Connect. Canva requires PKCE
// on the authorization-code exchange.
func CanvaConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     CanvaEndpoint,
		RedirectURL:  redirectURL,
		Scopes:       CanvaScopes,
	}
}
