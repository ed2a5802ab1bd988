package intel

import "strings"

// CleanMessage strips operator or model chatter wrapped around a scammer
// message. When a noise phrase is present and the text quotes something,
// the longest quoted span is taken as the real message; otherwise the text
// is returned unchanged.
func CleanMessage(text string) string {
	if !hasNoise(text) {
		return text
	}
	best := ""
	for _, m := range quotedRegex.FindAllStringSubmatch(text, -1) {
		if len(m[1]) > len(best) {
			best = m[1]
		}
	}
	if best == "" {
		return text
	}
	return best
}

func hasNoise(text string) bool {
	for _, p := range noisePhrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
