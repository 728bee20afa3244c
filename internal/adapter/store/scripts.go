package store

import (
	"slices"
	"strings"
)

// StaticScripts is the script catalog taken from configuration.
type StaticScripts []string

func NewStaticScripts(ids []string) StaticScripts {
	out := make(StaticScripts, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (s StaticScripts) ScriptEntityIDs() []string {
	return slices.Clone(s)
}
