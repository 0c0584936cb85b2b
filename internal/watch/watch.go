// Package watch detects changes to recipe source documents between ingests.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// FileState is the fingerprint of one source document. Only Hash decides
// whether a file changed; ModTime is kept for people reading the stored
// state, since touching a file or checking it out again moves it.
type FileState struct {
	Hash    string `json:"hash"`
	ModTime string `json:"mod_time"`
}

// Snapshot maps source paths to their fingerprints.
type Snapshot map[string]FileState

// StateStore persists snapshots between runs.
type StateStore interface {
	GetMeta(ctx context.Context, key string) (string, error)
	SetMeta(ctx context.Context, key, value string) error
}

// Scan fingerprints every file in dir matching pattern. A missing directory
// yields an empty snapshot.
func Scan(dir, pattern string) (Snapshot, error) {
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	snap := make(Snapshot, len(files))
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		if info.IsDir() {
			continue
		}
		hash, err := hashFile(path)
		if err != nil {
			return nil, fmt.Errorf("hash file %s: %w", path, err)
		}
		snap[path] = FileState{
			Hash:    hash,
			ModTime: info.ModTime().UTC().Format(time.RFC3339),
		}
	}
	return snap, nil
}

// Changes lists the paths whose content differs between prev and cur, in
// lexical order. Removed files carry a " (deleted)" suffix.
func Changes(prev, cur Snapshot) []string {
	var changed []string
	for path, state := range cur {
		if old, ok := prev[path]; !ok || old.Hash != state.Hash {
			changed = append(changed, path)
		}
	}
	for path := range prev {
		if _, ok := cur[path]; !ok {
			changed = append(changed, path+" (deleted)")
		}
	}
	sort.Strings(changed)
	return changed
}

// Load reads the snapshot stored under key. A missing key yields an empty
// snapshot.
func Load(ctx context.Context, store StateStore, key string) (Snapshot, error) {
	raw, err := store.GetMeta(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get watch state: %w", err)
	}
	snap := Snapshot{}
	if raw == "" {
		return snap, nil
	}
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("parse watch state: %w", err)
	}
	return snap, nil
}

// Save stores snap under key.
func Save(ctx context.Context, store StateStore, key string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal watch state: %w", err)
	}
	if err := store.SetMeta(ctx, key, string(data)); err != nil {
		return fmt.Errorf("save watch state: %w", err)
	}
	return nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
