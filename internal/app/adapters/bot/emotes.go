package bot

import (
	"regexp"
	"strings"

	"twitchlate/internal/app/ports"
)

var whitespaceRuns = regexp.MustCompile(`\s+`)

// stripEmotes excises the rune spans occupied by inline emote codes and
// collapses the leftover whitespace. Ranges are inclusive on both ends,
// as the chat transport reports them.
func stripEmotes(text string, ranges []ports.EmoteRange) string {
	if len(ranges) == 0 {
		return strings.TrimSpace(text)
	}

	runes := []rune(text)
	excised := make(map[int]struct{})
	for _, r := range ranges {
		for i := r.Start; i <= r.End && i < len(runes); i++ {
			if i < 0 {
				continue
			}
			excised[i] = struct{}{}
		}
	}

	var sb strings.Builder
	for i, r := range runes {
		if _, ok := excised[i]; ok {
			continue
		}
		sb.WriteRune(r)
	}

	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(sb.String(), " "))
}
