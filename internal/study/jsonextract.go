package study

import (
	"fmt"
)

// extractJSONObject returns the first balanced top-level JSON object found in
// raw model output. Models routinely wrap JSON in markdown code fences or
// surround it with prose; scanning for the first balanced {...} block handles
// both without caring about the wrapping.
func extractJSONObject(raw string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(raw); i++ {
		c := raw[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("no valid JSON object found in response")
}
