package ingest

import (
	"regexp"
	"strings"
	"sync"

	"sstab/models"
	"sstab/utils"
)

var (
	groupPatternsMu sync.Mutex
	groupPatterns   = map[string]*regexp.Regexp{}
)

// groupPattern returns the compiled `label:\((.*?)\)` matcher for label.
func groupPattern(label string) *regexp.Regexp {
	groupPatternsMu.Lock()
	defer groupPatternsMu.Unlock()
	re, ok := groupPatterns[label]
	if !ok {
		re = regexp.MustCompile(regexp.QuoteMeta(label) + `:\((.*?)\)`)
		groupPatterns[label] = re
	}
	return re
}

// ExtractGroup decodes the first `label:(k:v,...)` group in line using the
// default typer. See (*Typer).ExtractGroup.
func ExtractGroup(line, label string) (*models.Fields, string) {
	return defaultTyper.ExtractGroup(line, label)
}

// ExtractGroup finds the first `label:(...)` group in line, decodes its
// comma-separated key:value pieces and returns them together with line
// minus the matched group. When no group is present it returns an empty
// Fields and line unchanged.
//
// Pieces without a colon are dropped. Each piece is split on its first
// colon; the key loses surrounding whitespace and a leading label prefix,
// the value is typed like a top-level token. Later duplicates win.
func (t *Typer) ExtractGroup(line, label string) (*models.Fields, string) {
	loc := groupPattern(label).FindStringSubmatchIndex(line)
	if loc == nil {
		return models.NewFields(0), line
	}

	interior := line[loc[2]:loc[3]]
	pieces := strings.Split(interior, ",")
	out := models.NewFields(len(pieces))
	for _, piece := range pieces {
		key, value, found := strings.Cut(piece, ":")
		if !found {
			if strings.TrimSpace(piece) != "" {
				utils.L().Debug("%s group: dropping malformed sub-field %q", label, piece)
			}
			continue
		}
		out.Set(nestedKey(key, label), t.Type(strings.TrimSpace(value)))
	}

	return out, line[:loc[0]] + line[loc[1]:]
}

func nestedKey(key, label string) string {
	key = strings.TrimSpace(key)
	key = strings.TrimPrefix(key, label)
	return strings.TrimSpace(key)
}
