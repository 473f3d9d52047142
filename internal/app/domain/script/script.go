// Package script guesses the dominant writing system of a text sample by
// counting code points per Unicode range. The guess is diagnostic only
// and never gates a translation decision.
package script

type scriptRange struct {
	name string
	min  rune
	max  rune
}

// Priority order matters: the first matching range claims the rune, and
// ties on the final count resolve in favor of the script seen first.
var ranges = []scriptRange{
	{name: "Chinese", min: 0x4E00, max: 0x9FFF},
	{name: "Hiragana", min: 0x3040, max: 0x309F},
	{name: "Katakana", min: 0x30A0, max: 0x30FF},
	{name: "Hangul", min: 0xAC00, max: 0xD7AF},
	{name: "Cyrillic", min: 0x0400, max: 0x04FF},
	{name: "Latin", min: 0x0100, max: 0x017F},
}

var languageByScript = map[string]string{
	"Chinese":  "zh",
	"Hiragana": "ja",
	"Katakana": "ja",
	"Hangul":   "ko",
	"Cyrillic": "ru",
}

type Analysis struct {
	Counts         map[string]int
	DominantScript string
	Language       string
}

func Analyze(text string) Analysis {
	counts := make(map[string]int)
	var order []string

	count := func(name string) {
		if _, ok := counts[name]; !ok {
			order = append(order, name)
		}
		counts[name]++
	}

	for _, r := range text {
		// spaces, control characters and ASCII punctuation don't count
		if r <= 0x20 || (r >= 0x21 && r <= 0x2F) {
			continue
		}

		matched := false
		for _, sr := range ranges {
			if r >= sr.min && r <= sr.max {
				count(sr.name)
				matched = true
				break
			}
		}
		if !matched && ((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')) {
			count("BasicLatin")
		}
	}

	dominant := "Unknown"
	maxCount := 0
	for _, name := range order {
		if counts[name] > maxCount {
			maxCount = counts[name]
			dominant = name
		}
	}

	lang, ok := languageByScript[dominant]
	if !ok {
		lang = "unknown"
	}

	return Analysis{
		Counts:         counts,
		DominantScript: dominant,
		Language:       lang,
	}
}
