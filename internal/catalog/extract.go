package catalog

import (
	"regexp"
	"strings"
)

var (
	handlePattern  = regexp.MustCompile(`@\S+`)
	tagPattern     = regexp.MustCompile(`(?i)\b(480p|720p|1080p|2160p|4k|x264|x265|h264|h265|hevc|hdrip|webrip|web-dl|bluray|aac|dd5\.1|10bit|ds4k|untouched|mkv|mp4|avi|hd|hq|tamil|telugu|hindi|malayalam|kannada|english|dubbed|org|original|proper)\b`)
	bracketPattern = regexp.MustCompile(`[\[\]\(\)\{\}]`)
	yearPattern    = regexp.MustCompile(`([\p{L}\s]+)\(?(20\d{2})\b\)?`)
	cutPattern     = regexp.MustCompile(`[-0-9]`)
	resPattern     = regexp.MustCompile(`(?i)\b(480p|720p|1080p)\b`)
)

// ExtractTitle guesses a human title from an uploaded file name. The result
// is a heuristic and must be passed through Normalize before use as a key.
func ExtractTitle(filename string) string {
	s := handlePattern.ReplaceAllString(filename, "")
	s = strings.ReplaceAll(s, "_", " ")
	s = tagPattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ".", " ")
	s = bracketPattern.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")

	if m := yearPattern.FindStringSubmatch(s); m != nil {
		if title := strings.TrimSpace(m[1]); title != "" {
			return title + " (" + m[2] + ")"
		}
	}
	return strings.TrimSpace(cutPattern.Split(s, 2)[0])
}

// VariantFromFilename reports the resolution tag carried by a file name.
func VariantFromFilename(filename string) (Variant, bool) {
	normalized := strings.NewReplacer("_", " ", ".", " ").Replace(filename)
	m := resPattern.FindStringSubmatch(normalized)
	if m == nil {
		return "", false
	}
	return ParseVariant(strings.ToLower(m[1]))
}
