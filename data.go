package main

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/bradsaid/pdf-merger/internal/intake"
)

// loadManifest reads a JSON array, or one object per line when path ends in
// .jsonl. Entries keep file order; entries without a path are skipped.
func loadManifest(path string) ([]ManifestEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []ManifestEntry
	if strings.HasSuffix(strings.ToLower(path), ".jsonl") {
		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		line := 0
		for sc.Scan() {
			line++
			text := strings.TrimSpace(sc.Text())
			if text == "" {
				continue
			}
			var e ManifestEntry
			if err := json.Unmarshal([]byte(text), &e); err != nil {
				return nil, errors.Wrapf(err, "%s:%d", path, line)
			}
			entries = append(entries, e)
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
	} else if err := json.NewDecoder(bufio.NewReader(f)).Decode(&entries); err != nil {
		return nil, errors.Wrap(err, path)
	}

	base := filepath.Dir(path)
	out := entries[:0]
	for _, e := range entries {
		e.Path = strings.TrimSpace(e.Path)
		if e.Path == "" {
			continue
		}
		if !filepath.IsAbs(e.Path) {
			e.Path = filepath.Join(base, e.Path)
		}
		out = append(out, e)
	}
	return out, nil
}

// loadInputs reads the manifest entries, then the positional paths, into
// RawFiles. Unset types come from the extension or the content.
func loadInputs(manifest string, paths []string) ([]intake.RawFile, error) {
	var entries []ManifestEntry
	if manifest != "" {
		m, err := loadManifest(manifest)
		if err != nil {
			return nil, errors.Wrap(err, "load manifest")
		}
		entries = m
	}
	for _, p := range paths {
		entries = append(entries, ManifestEntry{Path: p})
	}

	raw := make([]intake.RawFile, 0, len(entries))
	for _, e := range entries {
		content, err := os.ReadFile(e.Path)
		if err != nil {
			return nil, errors.Wrap(err, "read input")
		}
		name := e.Name
		if name == "" {
			name = filepath.Base(e.Path)
		}
		declared := e.Type
		if declared == "" {
			declared = intake.DeclaredTypeFor(e.Path, content)
		}
		raw = append(raw, intake.RawFile{DeclaredType: declared, Name: name, Content: content})
	}
	return raw, nil
}
