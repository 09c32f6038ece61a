package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// loadFile reads a flat TOML file whose keys are env var names:
//
//	CLIENT_ID = "abc"
//	UPSTREAM_TIMEOUT = "20s"
//	REDIS_DB = 2
func loadFile(path string) (source, error) {
	if path == "" {
		return source{}, nil
	}
	raw := map[string]any{}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	src := make(source, len(raw))
	for k, v := range raw {
		src[k] = fmt.Sprint(v)
	}
	return src, nil
}
