package naming

import (
	"fmt"
	"strings"
)

// Joda-style date tokens, as used by the remote catalog, mapped to Go layout strings.
var date_tokens = map[string]string{
	"yyyy": "2006",
	"yy":   "06",
	"MMMM": "January",
	"MMM":  "Jan",
	"MM":   "01",
	"M":    "1",
	"dd":   "02",
	"d":    "2",
	"DDD":  "002",
	"HH":   "15",
	"hh":   "03",
	"h":    "3",
	"mm":   "04",
	"m":    "4",
	"ss":   "05",
	"s":    "5",
	"a":    "PM",
	"EEEE": "Monday",
	"EEE":  "Mon",
	"Z":    "-0700",
	"ZZ":   "-07:00",
	"z":    "MST",
}

// DateLayout converts a Joda-style date pattern (for example "yyyyMMdd" or "yyyy-MM-dd'T'HH") in to a Go time layout.
// Text between single quotes is copied literally.
func DateLayout(pattern string) (string, error) {

	var sb strings.Builder

	runes := []rune(pattern)
	n := len(runes)

	for i := 0; i < n; {

		r := runes[i]

		if r == '\'' {

			end := i + 1

			for end < n && runes[end] != '\'' {
				end++
			}

			if end == n {
				return "", fmt.Errorf("Unterminated quote in date pattern '%s'", pattern)
			}

			if end == i+1 {
				sb.WriteRune('\'')
			} else {
				sb.WriteString(string(runes[i+1 : end]))
			}

			i = end + 1
			continue
		}

		if !isLetter(r) {
			sb.WriteRune(r)
			i++
			continue
		}

		j := i

		for j < n && runes[j] == r {
			j++
		}

		token := string(runes[i:j])
		layout, ok := date_tokens[token]

		if !ok {
			return "", fmt.Errorf("Unsupported token '%s' in date pattern '%s'", token, pattern)
		}

		sb.WriteString(layout)
		i = j
	}

	return sb.String(), nil
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
