package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DefaultCallbackAddr is where the local OAuth callback server listens
const DefaultCallbackAddr = "localhost:8085"

// OAuthConfig holds the configuration for OAuth 2.0 authentication
type OAuthConfig struct {
	CredentialsFile string    // Path to OAuth client credentials JSON
	TokenFile       string    // Path to store/load token
	CallbackAddr    string    // host:port of the local callback server
	Prompt          io.Writer // Receives the authorization instructions
}

// newOAuthDriveService creates a Drive service using OAuth 2.0 user authentication
func newOAuthDriveService(ctx context.Context, cfg OAuthConfig) (*GoogleDriveService, error) {
	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read OAuth credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse OAuth credentials: %w", err)
	}

	token, err := getToken(ctx, config, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to get OAuth token: %w", err)
	}

	client := config.Client(ctx, token)
	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}

	return &GoogleDriveService{service: srv}, nil
}

// getToken retrieves a token from file or initiates the OAuth flow
func getToken(ctx context.Context, config *oauth2.Config, cfg OAuthConfig) (*oauth2.Token, error) {
	if token, err := loadToken(cfg.TokenFile); err == nil {
		// A stored token is refreshed when it has expired
		newToken, err := config.TokenSource(ctx, token).Token()
		if err == nil {
			if newToken.AccessToken != token.AccessToken {
				if err := saveToken(cfg.TokenFile, newToken); err != nil {
					fmt.Fprintf(cfg.Prompt, "Warning: couldn't save refreshed token: %v\n", err)
				}
			}
			return newToken, nil
		}
	}

	return getTokenFromWeb(ctx, config, cfg)
}

// loadToken loads a token from a file
func loadToken(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(token)
	return token, err
}

// saveToken saves a token to a file readable only by the owner
func saveToken(file string, token *oauth2.Token) error {
	if dir := filepath.Dir(file); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(token)
}

// getTokenFromWeb runs the installed-app flow with a loopback redirect
func getTokenFromWeb(ctx context.Context, config *oauth2.Config, cfg OAuthConfig) (*oauth2.Token, error) {
	addr := cfg.CallbackAddr
	if addr == "" {
		addr = DefaultCallbackAddr
	}
	config.RedirectURL = "http://" + addr + "/callback"

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- errors.New("no code in callback")
			fmt.Fprintf(w, "Error: No authorization code received")
			return
		}
		codeChan <- code
		fmt.Fprintf(w, "<html><body><h1>Authorization successful!</h1><p>You can close this window and return to the terminal.</p></body></html>")
	})

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("unable to start callback server: %w", err)
	}
	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != http.ErrServerClosed {
			errChan <- err
		}
	}()
	defer server.Shutdown(context.WithoutCancel(ctx))

	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	fmt.Fprintln(cfg.Prompt)
	fmt.Fprintln(cfg.Prompt, "Opening browser for Google authentication...")
	fmt.Fprintln(cfg.Prompt, "If the browser doesn't open, please visit this URL:")
	fmt.Fprintln(cfg.Prompt)
	fmt.Fprintln(cfg.Prompt, authURL)
	fmt.Fprintln(cfg.Prompt)

	openBrowser(authURL)

	var authCode string
	select {
	case authCode = <-codeChan:
	case err := <-errChan:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := config.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("unable to exchange auth code: %w", err)
	}

	if err := saveToken(cfg.TokenFile, token); err != nil {
		fmt.Fprintf(cfg.Prompt, "Warning: couldn't save token: %v\n", err)
	}

	fmt.Fprintln(cfg.Prompt, "Authentication successful!")
	return token, nil
}

// openBrowser opens a URL in the default browser
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		if _, err := exec.LookPath("xdg-open"); err == nil {
			cmd = exec.Command("xdg-open", url)
		} else if _, err := exec.LookPath("wslview"); err == nil {
			cmd = exec.Command("wslview", url)
		}
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	}

	if cmd != nil {
		_ = cmd.Start()
	}
}

// NewClientWithOAuth creates a new Google Drive client using OAuth 2.0
func NewClientWithOAuth(ctx context.Context, cfg OAuthConfig, opts ...ClientOption) (*Client, error) {
	c := &Client{}

	for _, opt := range opts {
		opt(c)
	}

	if cfg.Prompt == nil {
		cfg.Prompt = io.Discard
	}

	// If no custom drive service was provided, create one with OAuth
	if c.driveService == nil {
		svc, err := newOAuthDriveService(ctx, cfg)
		if err != nil {
			return nil, err
		}
		c.driveService = svc
	}

	return c, nil
}

// CredentialsKind reports whether a credentials file holds a service account key
// ("service_account") or OAuth client secrets ("oauth_client")
func CredentialsKind(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("unable to read credentials file: %w", err)
	}

	var probe struct {
		Type      string          `json:"type"`
		Installed json.RawMessage `json:"installed"`
		Web       json.RawMessage `json:"web"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return "", fmt.Errorf("unable to parse credentials: %w", err)
	}

	switch {
	case probe.Type == "service_account":
		return "service_account", nil
	case probe.Installed != nil || probe.Web != nil:
		return "oauth_client", nil
	default:
		return "", fmt.Errorf("unrecognised credentials file %s", path)
	}
}

// Open builds a client from whichever kind of credentials file is at credentialsPath
func Open(ctx context.Context, credentialsPath, tokenPath string, prompt io.Writer) (*Client, error) {
	kind, err := CredentialsKind(credentialsPath)
	if err != nil {
		return nil, err
	}
	if kind == "service_account" {
		return NewClient(ctx, credentialsPath)
	}
	return NewClientWithOAuth(ctx, OAuthConfig{
		CredentialsFile: credentialsPath,
		TokenFile:       tokenPath,
		Prompt:          prompt,
	})
}
