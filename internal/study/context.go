package study

import (
	"fmt"
	"strings"

	"github.com/clipscholar/video-study-generator/internal/search"
	"github.com/clipscholar/video-study-generator/internal/segment"
)

// BuildContext renders fused hits into a bounded textual context with
// timestamp markers, one line per hit, in the order the hits arrive (fusion
// already ranked them). Lines are appended until the next line would push the
// total over maxChars; that line is dropped whole, so the result never
// exceeds maxChars.
func BuildContext(hits []search.Hit, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}

	var b strings.Builder
	for _, hit := range hits {
		text := strings.Join(strings.Fields(hit.Text), " ")
		if text == "" {
			continue
		}

		line := fmt.Sprintf("- [%s–%s] %s",
			segment.FormatTimestamp(hit.StartSec),
			segment.FormatTimestamp(hit.EndSec),
			text)

		needed := len(line)
		if b.Len() > 0 {
			needed++ // newline separator
		}
		if b.Len()+needed > maxChars {
			break
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}
