package domain

import (
	"slices"
	"strings"
)

// Heuristics holds the keyword lists used to classify store titles. The lists
// are configuration; the matching rules live in the methods below.
type Heuristics struct {
	UtilityIDs      []string `yaml:"utility_ids"`
	UtilityKeywords []string `yaml:"utility_keywords"`
	SoftwareTags    []string `yaml:"software_tags"`
	AdultTags       []string `yaml:"adult_tags"`
}

// IsUtilityID reports whether id is on the utility allow-list.
func (h *Heuristics) IsUtilityID(id string) bool {
	return slices.Contains(h.UtilityIDs, id)
}

// MatchesUtilityKeyword reports whether any of values contains a utility
// keyword, ignoring case.
func (h *Heuristics) MatchesUtilityKeyword(values ...string) bool {
	for _, v := range values {
		lower := strings.ToLower(v)
		for _, kw := range h.UtilityKeywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				return true
			}
		}
	}
	return false
}

// HasSoftwareTag reports whether tags carry a software/utility marker.
func (h *Heuristics) HasSoftwareTag(tags []string) bool {
	return containsFold(tags, h.SoftwareTags)
}

// HasAdultTag reports whether tags carry an explicit adult marker.
func (h *Heuristics) HasAdultTag(tags []string) bool {
	return containsFold(tags, h.AdultTags)
}

func containsFold(tags, markers []string) bool {
	for _, t := range tags {
		for _, m := range markers {
			if strings.EqualFold(strings.TrimSpace(t), m) {
				return true
			}
		}
	}
	return false
}
