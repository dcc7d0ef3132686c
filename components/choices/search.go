package choices

import (
	"sort"
	"strings"
)

// Search returns the options listed under key whose label or value contains
// query, prefix matches first. An empty query returns the list in table
// order.
func Search(table Table, key, query string, limit int, opts Options) []Option {
	limit = clampLimit(limit, opts)
	if limit == 0 {
		return nil
	}
	list := table[strings.TrimSpace(key)]
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		if len(list) > limit {
			list = list[:limit]
		}
		return append([]Option(nil), list...)
	}

	matches := make([]matchedOption, 0, len(list))
	for _, opt := range list {
		label := strings.ToLower(opt.Label)
		value := strings.ToLower(opt.Value)
		if !strings.Contains(label, query) && !strings.Contains(value, query) {
			continue
		}
		matches = append(matches, matchedOption{
			option:   opt,
			isPrefix: strings.HasPrefix(label, query) || strings.HasPrefix(value, query),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].isPrefix != matches[j].isPrefix {
			return matches[i].isPrefix
		}
		return matches[i].option.Label < matches[j].option.Label
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]Option, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.option)
	}
	return out
}

type matchedOption struct {
	option   Option
	isPrefix bool
}
