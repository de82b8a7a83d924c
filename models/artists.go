package models

import (
	"regexp"
	"strings"
)

var (
	featuringPattern = regexp.MustCompile(`[(\[](?:[fF]eat\.|ft\.|with|w/|&|and|,)\s(?P<names>.+)[)\]]`)
	artistSeparator  = regexp.MustCompile(`,|&`)
)

// ParseArtists returns the primary artist followed by any guests credited in the title,
// so "Song (feat. A & B)" by "C" yields [C A B].
func ParseArtists(artist, title string) []string {
	artists := []string{artist}

	match := featuringPattern.FindStringSubmatch(title)
	if match == nil {
		return artists
	}
	names := match[featuringPattern.SubexpIndex("names")]

	for _, name := range artistSeparator.Split(names, -1) {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		artists = append(artists, name)
	}
	return artists
}
