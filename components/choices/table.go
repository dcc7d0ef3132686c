package choices

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"strings"
	"sync"
)

//go:embed data/regions.txt
var dataFS embed.FS

const defaultTablePath = "data/regions.txt"

// Option is one entry of a list.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Table maps a parent value to its option list.
type Table map[string][]Option

// Clone deep-copies t.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	for key, list := range t {
		out[key] = append([]Option(nil), list...)
	}
	return out
}

var (
	defaultOnce  sync.Once
	defaultTable Table
	defaultErr   error
)

// DefaultTable returns the embedded lists.
func DefaultTable() (Table, error) {
	defaultOnce.Do(func() {
		f, err := dataFS.Open(defaultTablePath)
		if err != nil {
			defaultErr = err
			return
		}
		defer func() { _ = f.Close() }()
		defaultTable, defaultErr = LoadTable(f)
	})
	if defaultErr != nil {
		return nil, defaultErr
	}
	return defaultTable.Clone(), nil
}

// tableFor returns the configured table or the embedded lists.
func tableFor(opts Options) (Table, error) {
	if opts.Table != nil {
		return opts.Table, nil
	}
	return DefaultTable()
}

// LoadTable reads "key|value|label" lines. Blank lines and lines starting
// with # are skipped, duplicate values under one key are dropped, and a
// missing label defaults to the value.
func LoadTable(r io.Reader) (Table, error) {
	if r == nil {
		return nil, fmt.Errorf("choices: missing reader")
	}
	scanner := bufio.NewScanner(r)
	table := Table{}
	seen := map[string]struct{}{}
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "|", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("choices: line %d: expected key|value|label", lineNo)
		}
		key, value := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		label := value
		if len(parts) == 3 && strings.TrimSpace(parts[2]) != "" {
			label = strings.TrimSpace(parts[2])
		}
		id := key + "\x00" + value
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		table[key] = append(table[key], Option{Value: value, Label: label})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return table, nil
}
