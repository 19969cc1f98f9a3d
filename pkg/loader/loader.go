// Package loader reads trial datasets from JSONL files, one trial per
// line. Malformed or invalid lines are skipped so a partially corrupt
// dataset still loads.
package loader

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ptscope/ptscope/pkg/model"
)

// FindDataPath locates the trial dataset in the given directory. Prefers
// trials.jsonl; backup files and merge artifacts are skipped.
func FindDataPath(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read data directory: %w", err)
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		if strings.Contains(name, ".backup") || strings.Contains(name, ".orig") {
			continue
		}
		candidates = append(candidates, name)
	}

	if len(candidates) == 0 {
		return "", fmt.Errorf("no trial JSONL file found in %s", dir)
	}

	// trials.jsonl is canonical; dataset.jsonl is the legacy name.
	for _, preferred := range []string{"trials.jsonl", "dataset.jsonl"} {
		for _, name := range candidates {
			if name == preferred {
				path := filepath.Join(dir, name)
				if info, err := os.Stat(path); err == nil && info.Size() > 0 {
					return path, nil
				}
			}
		}
	}

	// Fall back to the first non-empty candidate.
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			return path, nil
		}
	}

	return filepath.Join(dir, candidates[0]), nil
}

// LoadTrials reads a dataset from path, which may be a JSONL file or a
// directory containing one. An empty path means the current directory.
func LoadTrials(path string) ([]model.Trial, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("no trial dataset at %s: %w", path, err)
	}
	if info.IsDir() {
		path, err = FindDataPath(path)
		if err != nil {
			return nil, err
		}
	}

	return LoadTrialsFromFile(path)
}

// LoadTrialsFromFile reads trials directly from a specific JSONL file.
func LoadTrialsFromFile(path string) ([]model.Trial, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trial dataset: %w", err)
	}
	defer file.Close()

	var trials []model.Trial
	scanner := bufio.NewScanner(file)
	// Large lines happen when titles carry full protocol names.
	const maxCapacity = 1024 * 1024 * 10 // 10MB
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		if lineNum == 1 {
			line = stripBOM(line)
		}

		var trial model.Trial
		if err := json.Unmarshal(line, &trial); err != nil {
			// Skip malformed lines but keep loading the rest.
			continue
		}
		if err := trial.Validate(); err != nil {
			continue
		}

		trials = append(trials, trial)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading trial dataset: %w", err)
	}

	return trials, nil
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}
