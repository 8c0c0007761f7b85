package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/jonathan/pin-pipeline/internal/config"
	"github.com/jonathan/pin-pipeline/internal/oauth"
	"github.com/jonathan/pin-pipeline/internal/server"
)

var (
	tokenRedirectURL string
	tokenCode        string
	tokenVerifier    string
	tokenState       string
	tokenSubject     string
	tokenConfigPath  string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "One-off credential helpers",
}

var tokenOAuthCmd = &cobra.Command{
	Use:   "oauth [pinterest|canva]",
	Short: "Obtain a refresh token through the authorization-code flow",
	Long: `Without --code, prints the authorization URL to open in a browser (and, for Canva, the PKCE
verifier to pass back). With --code, exchanges the code and prints the refresh token to store
as PINTEREST_REFRESH_TOKEN or CANVA_REFRESH_TOKEN.

Client credentials are read from PINTEREST_CLIENT_ID/SECRET or CANVA_CLIENT_ID/SECRET.`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"pinterest", "canva"},
	RunE:      runTokenOAuth,
}

var tokenTriggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Mint a bearer token for POST /runs",
	RunE:  runTokenTrigger,
}

func init() {
	tokenOAuthCmd.Flags().StringVar(&tokenRedirectURL, "redirect-url", "", "Redirect URL registered with the provider")
	tokenOAuthCmd.Flags().StringVar(&tokenCode, "code", "", "Authorization code returned to the redirect URL")
	tokenOAuthCmd.Flags().StringVar(&tokenVerifier, "verifier", "", "PKCE verifier printed by the first step (Canva)")
	tokenOAuthCmd.Flags().StringVar(&tokenState, "state", "pin-agent", "OAuth state parameter")
	_ = tokenOAuthCmd.MarkFlagRequired("redirect-url")

	tokenTriggerCmd.Flags().StringVar(&tokenSubject, "subject", "scheduler", "Caller name recorded with triggered runs")
	tokenTriggerCmd.Flags().StringVar(&tokenConfigPath, "config", "", "Path to config.json file (JWT_SECRET and JWT_EXPIRATION_HOURS override it)")

	tokenCmd.AddCommand(tokenOAuthCmd, tokenTriggerCmd)
	rootCmd.AddCommand(tokenCmd)
}

// providerConfig returns the oauth2 config for a provider and whether it
// requires PKCE.
func providerConfig(provider, redirectURL string, getenv func(string) string) (*oauth2.Config, bool, error) {
	switch provider {
	case "pinterest":
		cfg := oauth.PinterestConfig(getenv("PINTEREST_CLIENT_ID"), getenv("PINTEREST_CLIENT_SECRET"), redirectURL)
		return cfg, false, requireClient(cfg, "PINTEREST")
	case "canva":
		cfg := oauth.CanvaConfig(getenv("CANVA_CLIENT_ID"), getenv("CANVA_CLIENT_SECRET"), redirectURL)
		return cfg, true, requireClient(cfg, "CANVA")
	default:
		return nil, false, fmt.Errorf("unknown provider: %s", provider)
	}
}

func requireClient(cfg *oauth2.Config, prefix string) error {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return fmt.Errorf("%s_CLIENT_ID and %s_CLIENT_SECRET are required", prefix, prefix)
	}
	return nil
}

func runTokenOAuth(cmd *cobra.Command, args []string) error {
	cfg, pkce, err := providerConfig(args[0], tokenRedirectURL, os.Getenv)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if tokenCode == "" {
		var opts []oauth2.AuthCodeOption
		if pkce {
			verifier := oauth2.GenerateVerifier()
			opts = append(opts, oauth2.S256ChallengeOption(verifier))
			_, _ = fmt.Fprintf(out, "Verifier (pass as --verifier): %s\n", verifier)
		}
		_, _ = fmt.Fprintf(out, "Open this URL and approve access:\n%s\n", cfg.AuthCodeURL(tokenState, opts...))
		return nil
	}

	var opts []oauth2.AuthCodeOption
	if pkce {
		if tokenVerifier == "" {
			return fmt.Errorf("--verifier is required for %s", args[0])
		}
		opts = append(opts, oauth2.VerifierOption(tokenVerifier))
	}
	tok, err := cfg.Exchange(context.Background(), tokenCode, opts...)
	if err != nil {
		return fmt.Errorf("failed to exchange code: %w", err)
	}
	if tok.RefreshToken == "" {
		return fmt.Errorf("provider returned no refresh token")
	}
	_, _ = fmt.Fprintf(out, "Refresh token: %s\n", tok.RefreshToken)
	if !tok.Expiry.IsZero() {
		_, _ = fmt.Fprintf(out, "Access token expires: %s\n", tok.Expiry.Format("2006-01-02 15:04:05 MST"))
	}
	return nil
}

func runTokenTrigger(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(tokenConfigPath)
	if err != nil {
		return err
	}
	jwtConfig, err := cfg.TriggerAuth()
	if err != nil {
		return err
	}
	token, err := server.NewJWTService(jwtConfig).GenerateToken(tokenSubject)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
