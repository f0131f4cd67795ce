// Package configfile reads and rewrites the TOML file that mirrors the
// API key and model name. Keys other than the two managed ones are kept.
package configfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

const (
	keyAPIKey = "openai_api_key"
	keyModel  = "default_model"
)

// ErrMissingField is returned by Write when either value is empty.
var ErrMissingField = errors.New("api key and model are required")

// Values are the two mirrored settings.
type Values struct {
	APIKey string `json:"apiKey"`
	Model  string `json:"model"`
}

// Complete reports whether both fields are set.
func (v Values) Complete() bool {
	return v.APIKey != "" && v.Model != ""
}

// File is a config mirror file at a fixed path.
type File struct {
	path string
	mu   sync.Mutex
}

// New returns a File for path. The file does not need to exist yet.
func New(path string) *File {
	return &File{path: path}
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Read returns the mirrored values. A missing file yields empty values.
func (f *File) Read() (Values, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.readDocument()
	if err != nil {
		return Values{}, err
	}
	return Values{
		APIKey: stringField(doc, keyAPIKey),
		Model:  stringField(doc, keyModel),
	}, nil
}

// Write rewrites the two managed fields, keeping every other key.
func (f *File) Write(values Values) error {
	if !values.Complete() {
		return ErrMissingField
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.readDocument()
	if err != nil {
		return err
	}
	doc[keyAPIKey] = values.APIKey
	doc[keyModel] = values.Model

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("encode config file: %w", err)
	}
	return atomicWrite(f.path, buf.Bytes(), 0o600)
}

func (f *File) readDocument() (map[string]any, error) {
	doc := make(map[string]any)
	if _, err := toml.DecodeFile(f.path, &doc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]any), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return doc, nil
}

func stringField(doc map[string]any, key string) string {
	value, ok := doc[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

// atomicWrite writes to a temp file in the target directory and renames it
// over path, so readers see either the old or the new document.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	success = true
	return nil
}
