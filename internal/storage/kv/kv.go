// Package kv provides the string key/value persistence used for settings
// and the serialized conversation list.
package kv

import (
	"context"
	"errors"
)

// Keys written by the application.
const (
	KeyAPIKey         = "openai_api_key"
	KeyModel          = "openai_model"
	KeyConversations  = "chat_conversations"
	KeySidebarVisible = "sidebar_visible"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("kv store closed")

// Store gets and sets string values by key.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
