// Package resources describes the downloadable asset bundle clients need
// to render cards, and serves it over HTTP while players connect.
package resources

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Info is the resource pack description: version name, download link and
// the card count of every card set. It is immutable after Load, so it is
// read without locking from every component.
type Info struct {
	Name string
	Link string

	sets map[string]int
}

// NewInfo builds a pack description from explicit values.
func NewInfo(name, link string, sets map[string]int) *Info {
	if sets == nil {
		sets = make(map[string]int)
	}
	return &Info{Name: name, Link: link, sets: sets}
}

// Load builds the pack description from the configured values, letting
// version.json and sets.json in the pack directory override them. A
// missing or broken file is logged and the fallback stands.
func Load(dir, name, link string) *Info {
	info := NewInfo(name, link, nil)

	if data, err := os.ReadFile(filepath.Join(dir, "sets.json")); err == nil {
		if err := json.Unmarshal(data, &info.sets); err != nil {
			log.Error().Err(err).Msg("failed to parse sets.json")
		}
	} else {
		log.Error().Err(err).Msg("failed to load sets.json")
	}

	if data, err := os.ReadFile(filepath.Join(dir, "version.json")); err == nil {
		var version string
		if err := json.Unmarshal(data, &version); err != nil {
			log.Error().Err(err).Msg("failed to parse version.json")
		} else {
			info.Name = version
		}
	} else {
		log.Error().Err(err).Msg("failed to load version.json")
	}

	return info
}

// CardCount reports the number of cards in a set.
func (i *Info) CardCount(set string) (int, bool) {
	n, ok := i.sets[set]
	return n, ok
}

// Sets lists the configured card set names, for console completion and
// error messages.
func (i *Info) Sets() []string {
	names := make([]string, 0, len(i.sets))
	for name := range i.sets {
		names = append(names, name)
	}
	return names
}
