package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnknownProvider = errors.New("unknown ai provider")
	ErrEmptyResponse   = errors.New("empty response from model")
)

// Provider names a completion backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderArk    Provider = "ark"
)

// Completer performs one completion call and returns the assistant text.
// The key is passed per call because it can change at runtime.
type Completer interface {
	Complete(ctx context.Context, apiKey string, req Request) (string, error)
}

// RemoteCallError reports a failed completion call. Status is zero when the
// request never produced an HTTP response.
type RemoteCallError struct {
	Status  int
	Message string
	Err     error
}

func (e *RemoteCallError) Error() string {
	if e.Status == 0 {
		if e.Message != "" {
			return e.Message
		}
		if e.Err != nil {
			return e.Err.Error()
		}
		return "completion request failed"
	}

	msg := fmt.Sprintf("API Error: %d %s", e.Status, http.StatusText(e.Status))
	if e.Message != "" {
		msg += " - " + e.Message
	}
	return msg
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

// Options configures NewCompleter.
type Options struct {
	Provider      Provider
	OpenAIBaseURL string
	ArkBaseURL    string
	ArkRegion     string
	HTTPClient    *http.Client
}

// NewCompleter returns the completer for opts.Provider.
func NewCompleter(opts Options) (Completer, error) {
	switch opts.Provider {
	case ProviderOpenAI, "":
		return NewOpenAICompleter(opts.OpenAIBaseURL, opts.HTTPClient), nil
	case ProviderArk:
		return NewArkCompleter(opts.ArkBaseURL, opts.ArkRegion), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, opts.Provider)
	}
}
