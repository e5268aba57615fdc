package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/boardproxy/summary"
)

// LoadMembers reads the member directory from a YAML file keyed by user id:
//
//	12345:
//	  name: Ada Lovelace
//	  photo: https://example.com/ada.png
//
// An empty path returns an empty directory.
func LoadMembers(path string) (summary.Directory, error) {
	if path == "" {
		return summary.Directory{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read members file: %w", err)
	}

	var dir summary.Directory
	if err := yaml.Unmarshal(data, &dir); err != nil {
		return nil, fmt.Errorf("config: parse members file: %w", err)
	}
	if dir == nil {
		dir = summary.Directory{}
	}
	return dir, nil
}
