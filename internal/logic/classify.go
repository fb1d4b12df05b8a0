package logic

import (
	"strings"

	"hackhub/internal/domain"
)

var hackathonMarkers = []string{"hackathon", "hack-a-thon", "buildathon"}

var communityMarkers = []string{"workshop", "meetup", "conference", "talk", "community"}

// Classify places an event into exactly one tab bucket. Events carrying a
// hackathon marker in their tags or title are hackathons; everything else,
// including events with no recognisable marker, is community.
func Classify(e *domain.Event) domain.Category {
	if e == nil {
		return domain.CategoryCommunity
	}
	if hasMarker(e, hackathonMarkers) {
		return domain.CategoryHackathon
	}
	return domain.CategoryCommunity
}

// HasCommunityMarker reports whether the event is explicitly tagged as a
// community event. Classify does not need it, unmarked events already fall
// into the community bucket.
func HasCommunityMarker(e *domain.Event) bool {
	return e != nil && hasMarker(e, communityMarkers)
}

func hasMarker(e *domain.Event, markers []string) bool {
	for _, tag := range e.Tags {
		t := fold(strings.TrimSpace(tag))
		for _, m := range markers {
			if strings.Contains(t, m) {
				return true
			}
		}
	}
	title := fold(e.Title)
	for _, m := range markers {
		if strings.Contains(title, m) {
			return true
		}
	}
	return false
}
