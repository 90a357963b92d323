// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"github.com/accelbench/iaxbench/lib/config"
)

// Digest is a 32-byte BLAKE3 digest identifying corpus bytes.
type Digest [32]byte

// String returns the canonical hex form.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the leading twelve hex characters, enough to tell
// corpus entries apart in case names and logs.
func (d Digest) Short() string {
	return hex.EncodeToString(d[:6])
}

// Entry is one named blob of corpus data.
type Entry struct {
	Name   string
	Data   []byte
	Digest Digest
}

// Corpus is an ordered set of entries.
type Corpus struct {
	// Source records where the corpus came from: the load path, or
	// "synthetic" for generated data.
	Source  string
	Entries []Entry
}

func newEntry(name string, data []byte) Entry {
	return Entry{Name: name, Data: data, Digest: blake3.Sum256(data)}
}

// Digest combines the entry digests, in order, into a single corpus
// identity. Reordering entries changes it.
func (c *Corpus) Digest() Digest {
	hasher := blake3.New()
	for _, entry := range c.Entries {
		hasher.Write(entry.Digest[:])
	}
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// TotalSize is the byte count across all entries.
func (c *Corpus) TotalSize() int {
	total := 0
	for _, entry := range c.Entries {
		total += len(entry.Data)
	}
	return total
}

// Load reads a corpus from a path: a directory yields one entry per
// regular file in name order, a .yaml/.yml file is read as a corpus
// manifest, and any other file becomes a single-entry corpus.
func Load(path string) (*Corpus, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	if info.IsDir() {
		return loadDirectory(path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadManifest(path)
	}
	return loadSingleFile(path)
}

func loadSingleFile(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	return &Corpus{
		Source:  path,
		Entries: []Entry{newEntry(filepath.Base(path), data)},
	}, nil
}

func loadDirectory(path string) (*Corpus, error) {
	listing, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	corpus := &Corpus{Source: path}
	for _, item := range listing {
		if !item.Type().IsRegular() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(path, item.Name()))
		if err != nil {
			return nil, fmt.Errorf("dataset entry %s: %w", item.Name(), err)
		}
		corpus.Entries = append(corpus.Entries, newEntry(item.Name(), data))
	}
	if len(corpus.Entries) == 0 {
		return nil, fmt.Errorf("dataset directory %s contains no regular files", path)
	}
	return corpus, nil
}

// corpusManifest is the YAML schema for a manifest: a list of data
// files with optional display names. Relative paths are resolved
// against the manifest's directory and ${VAR} patterns expand the way
// run-profile paths do.
type corpusManifest struct {
	Entries []struct {
		Name string `yaml:"name"`
		Path string `yaml:"path"`
	} `yaml:"entries"`
}

func loadManifest(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	var manifest corpusManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing corpus manifest %s: %w", path, err)
	}
	if len(manifest.Entries) == 0 {
		return nil, fmt.Errorf("corpus manifest %s lists no entries", path)
	}

	base := filepath.Dir(path)
	corpus := &Corpus{Source: path}
	for i, item := range manifest.Entries {
		entryPath := config.ExpandPath(item.Path)
		if entryPath == "" {
			return nil, fmt.Errorf("corpus manifest %s: entry %d has no path", path, i)
		}
		if !filepath.IsAbs(entryPath) {
			entryPath = filepath.Join(base, entryPath)
		}
		blob, err := os.ReadFile(entryPath)
		if err != nil {
			return nil, fmt.Errorf("corpus manifest entry %q: %w", item.Name, err)
		}
		name := item.Name
		if name == "" {
			name = filepath.Base(entryPath)
		}
		corpus.Entries = append(corpus.Entries, newEntry(name, blob))
	}
	return corpus, nil
}

// Chunks splits data for block processing. A non-positive block size
// disables splitting and yields the whole input as one chunk.
func Chunks(data []byte, blockSize int64) [][]byte {
	if blockSize <= 0 || int64(len(data)) <= blockSize {
		return [][]byte{data}
	}
	chunks := make([][]byte, 0, (int64(len(data))+blockSize-1)/blockSize)
	for start := int64(0); start < int64(len(data)); start += blockSize {
		end := start + blockSize
		if end > int64(len(data)) {
			end = int64(len(data))
		}
		chunks = append(chunks, data[start:end])
	}
	return chunks
}

// Resize adjusts data to a target working-set size: larger inputs are
// truncated, smaller ones tiled. A non-positive target returns the
// data unchanged.
func Resize(data []byte, target int) []byte {
	if target <= 0 || len(data) == 0 || len(data) == target {
		return data
	}
	if len(data) > target {
		return data[:target]
	}
	out := make([]byte, 0, target)
	for len(out) < target {
		remaining := target - len(out)
		if remaining > len(data) {
			remaining = len(data)
		}
		out = append(out, data[:remaining]...)
	}
	return out
}
