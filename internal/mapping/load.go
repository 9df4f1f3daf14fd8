// internal/mapping/load.go
package mapping

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a mapping document from disk.
// File I/O blocks; callers on a latency-sensitive loop must run this on a
// worker goroutine.
func Load(path string) (*Document, error) {
	filename := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{
			Filename: filename,
			Problems: []Problem{{Path: "file", Msg: fmt.Sprintf("cannot read mapping: %v", err)}},
		}
	}

	return Parse(filename, data)
}

// Parse validates a raw mapping document and builds typed descriptors.
// All structural problems are collected and returned together as *Error.
func Parse(filename string, data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &Error{
			Filename: filename,
			Problems: []Problem{{Path: "file", Msg: fmt.Sprintf("YAML parse error: %v", err)}},
		}
	}

	problems := validate(&root)

	var warnings []Problem
	hard := 0
	for _, p := range problems {
		if p.Warning {
			warnings = append(warnings, p)
		} else {
			hard++
		}
	}
	if hard > 0 {
		return nil, &Error{Filename: filename, Problems: problems}
	}

	device, entities := build(&root)

	return &Document{
		Device:   device,
		Entities: entities,
		Warnings: warnings,
	}, nil
}

// ListFiles enumerates mapping documents (*.yaml, *.yml) in dir, sorted by
// name. A missing directory yields an empty list, not an error.
func ListFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files
}
