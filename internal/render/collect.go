package render

import "strings"

// Group is the records of one file in the order the tool reported them.
type Group struct {
	Path    string
	Records []Record
}

// Collect parses raw JSON-lines output and groups usable records by the
// path the tool reported. Groups keep first-appearance order and records
// keep stream order; nothing is re-sorted.
//
// hasContext reports whether any context record appeared anywhere in the
// stream. parsed is the number of usable records.
func Collect(raw string) (groups []Group, hasContext bool, parsed int) {
	index := make(map[string]int)

	for _, line := range strings.Split(raw, "\n") {
		rec, ok := ParseLine(line)
		if !ok {
			continue
		}
		parsed++
		if rec.Kind == KindContext {
			hasContext = true
		}

		i, seen := index[rec.FilePath]
		if !seen {
			i = len(groups)
			index[rec.FilePath] = i
			groups = append(groups, Group{Path: rec.FilePath})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}

	return groups, hasContext, parsed
}
