// Telecaster - Profile-Driven TV Channel Programming
// Copyright 2026 J. Lagace (jmlagace)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmlagace/telecaster

package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// ErrProfileNotFound is returned when no profile has the requested ID.
var ErrProfileNotFound = errors.New("profile: not found")

// Source is the thin interface the job layer consumes to resolve a profile
// ID at submission time. Profile CRUD lives outside the core.
type Source interface {
	GetProfile(ctx context.Context, id string) (*Profile, error)
}

// FileStore is a Source over a directory of JSON profile files. Unknown
// fields are rejected on decode so a profile written for a newer schema
// fails loudly instead of silently losing configuration.
type FileStore struct {
	dir string

	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewFileStore loads every *.json profile under dir.
func NewFileStore(dir string) (*FileStore, error) {
	fs := &FileStore{dir: dir, profiles: make(map[string]*Profile)}
	if err := fs.Reload(); err != nil {
		return nil, err
	}
	return fs, nil
}

// Reload re-reads the profile directory.
func (f *FileStore) Reload() error {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return fmt.Errorf("read profile dir %s: %w", f.dir, err)
	}

	loaded := make(map[string]*Profile)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(f.dir, entry.Name())
		p, err := LoadFile(path)
		if err != nil {
			return err
		}
		loaded[p.ID] = p
	}

	f.mu.Lock()
	f.profiles = loaded
	f.mu.Unlock()
	return nil
}

// GetProfile implements Source.
func (f *FileStore) GetProfile(_ context.Context, id string) (*Profile, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	p, ok := f.profiles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, id)
	}
	return p, nil
}

// LoadFile parses and validates a single profile file. Decoding is strict:
// unknown fields are an error.
func LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a profile from JSON, rejecting unknown fields, and runs the
// validation pass.
func Parse(data []byte) (*Profile, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	p := &Profile{}
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if p.SchemaVersion == 0 {
		p.SchemaVersion = SchemaVersion
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// StaticSource is a Source over an in-memory profile set, used in tests and
// by callers that manage profiles themselves.
type StaticSource map[string]*Profile

// GetProfile implements Source.
func (s StaticSource) GetProfile(_ context.Context, id string) (*Profile, error) {
	p, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, id)
	}
	return p, nil
}
