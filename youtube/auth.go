// Package youtube handles the YouTube side of the pipeline: OAuth2
// credentials and the upload of transcoded videos, thumbnails and
// playlist items.
package youtube

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// OAuth scopes requested during authorization. If these change, delete the
// stored token file and re-authorize.
var scopes = []string{
	"https://www.googleapis.com/auth/youtube",
	"https://www.googleapis.com/auth/youtube.readonly",
	"https://www.googleapis.com/auth/youtube.upload",
}

// Default credential locations, relative to the working directory.
const (
	DefaultSecretPath = "client_secret.json"
	DefaultTokenPath  = ".credentials/yappsync.json"
)

// CredentialError wraps failures while acquiring or persisting OAuth credentials.
type CredentialError struct {
	// Op is the step that failed ("read secret", "exchange", "store token").
	Op string
	// Err is the underlying error.
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("youtube: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *CredentialError) Unwrap() error { return e.Err }

// CodePrompt obtains an authorization code from the user after they visit
// authURL. It is injectable so tests can drive the flow without a terminal.
type CodePrompt func(authURL string) (string, error)

// TerminalPrompt prints the consent URL and reads the code from stdin.
func TerminalPrompt(authURL string) (string, error) {
	fmt.Printf("Authorize this app by visiting this url: %s\n", authURL)
	fmt.Print("Enter the code from that page here: ")
	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(code), nil
}

// Authenticator manages the OAuth2 client lifecycle: it loads a stored
// token when one exists, and otherwise runs the interactive authorization
// flow and persists the resulting token for later runs.
type Authenticator struct {
	secretPath string
	tokenPath  string
	prompt     CodePrompt
}

// NewAuthenticator creates an authenticator reading the client secret from
// secretPath and persisting tokens at tokenPath. A nil prompt defaults to
// TerminalPrompt.
func NewAuthenticator(secretPath, tokenPath string, prompt CodePrompt) *Authenticator {
	if secretPath == "" {
		secretPath = DefaultSecretPath
	}
	if tokenPath == "" {
		tokenPath = DefaultTokenPath
	}
	if prompt == nil {
		prompt = TerminalPrompt
	}
	return &Authenticator{secretPath: secretPath, tokenPath: tokenPath, prompt: prompt}
}

// Client returns an authorized HTTP client. Token refresh, when needed, is
// handled transparently by the oauth2 client.
func (a *Authenticator) Client(ctx context.Context) (*http.Client, error) {
	secret, err := os.ReadFile(a.secretPath)
	if err != nil {
		return nil, &CredentialError{Op: "read secret", Err: err}
	}

	conf, err := google.ConfigFromJSON(secret, scopes...)
	if err != nil {
		return nil, &CredentialError{Op: "parse secret", Err: err}
	}

	tok, err := a.loadToken()
	if err != nil {
		tok, err = a.newToken(ctx, conf)
		if err != nil {
			return nil, err
		}
	}

	return conf.Client(ctx, tok), nil
}

// loadToken reads a previously stored token from disk.
func (a *Authenticator) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(a.tokenPath)
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// newToken runs the interactive authorization flow: consent URL, code
// prompt, code-for-token exchange, and token persistence.
func (a *Authenticator) newToken(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	authURL := conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline)

	code, err := a.prompt(authURL)
	if err != nil {
		return nil, &CredentialError{Op: "prompt", Err: err}
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, &CredentialError{Op: "exchange", Err: err}
	}

	if err := a.storeToken(tok); err != nil {
		return nil, err
	}

	return tok, nil
}

// storeToken persists the token for later program executions.
func (a *Authenticator) storeToken(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(a.tokenPath), 0700); err != nil {
		return &CredentialError{Op: "store token", Err: err}
	}

	data, err := json.Marshal(tok)
	if err != nil {
		return &CredentialError{Op: "store token", Err: err}
	}
	if err := os.WriteFile(a.tokenPath, data, 0600); err != nil {
		return &CredentialError{Op: "store token", Err: err}
	}

	log.Printf("youtube: token stored to %s", a.tokenPath)
	return nil
}
