package fetch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoCredentials means neither configuration nor kaggle.json provide a key.
var ErrNoCredentials = errors.New("kaggle credentials not found: set KAGGLE_USERNAME and KAGGLE_KEY or create ~/.kaggle/kaggle.json")

// Credentials authenticate against the Kaggle API.
type Credentials struct {
	Username string `json:"username"`
	Key      string `json:"key"`
}

// Complete reports whether both fields are set.
func (c Credentials) Complete() bool { return c.Username != "" && c.Key != "" }

// LoadCredentials returns the given pair when complete, otherwise reads
// kaggle.json from KAGGLE_CONFIG_DIR or ~/.kaggle.
func LoadCredentials(username, key string) (Credentials, error) {
	c := Credentials{Username: strings.TrimSpace(username), Key: strings.TrimSpace(key)}
	if c.Complete() {
		return c, nil
	}
	dir := os.Getenv("KAGGLE_CONFIG_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Credentials{}, ErrNoCredentials
		}
		dir = filepath.Join(home, ".kaggle")
	}
	b, err := os.ReadFile(filepath.Join(dir, "kaggle.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, ErrNoCredentials
		}
		return Credentials{}, fmt.Errorf("read kaggle.json: %w", err)
	}
	var file Credentials
	if err := json.Unmarshal(b, &file); err != nil {
		return Credentials{}, fmt.Errorf("parse kaggle.json: %w", err)
	}
	if c.Username == "" {
		c.Username = file.Username
	}
	if c.Key == "" {
		c.Key = file.Key
	}
	if !c.Complete() {
		return Credentials{}, ErrNoCredentials
	}
	return c, nil
}
