package engineconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/aurora/engine/pkg/config"
)

// Load reads a profile YAML file
// KnownFields(true): 오타/미사용 필드는 즉시 실패
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read engine profile: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates profile YAML
func Parse(data []byte) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode engine profile: %w", err)
	}

	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Hash fingerprints the effective engine parameters (canonical JSON of a
// struct, so field order is fixed)
func Hash(cfg config.EngineConfig) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// Resolve applies the profile at path (if any) to base and returns the
// effective parameters with their hash. An empty path means no overlay.
func Resolve(path string, base config.EngineConfig) (config.EngineConfig, string, error) {
	effective := base
	if path != "" {
		p, err := Load(path)
		if err != nil {
			return base, "", err
		}
		if effective, err = p.Apply(base); err != nil {
			return base, "", err
		}
	}

	hash, err := Hash(effective)
	if err != nil {
		return base, "", fmt.Errorf("hash engine config: %w", err)
	}
	return effective, hash, nil
}
