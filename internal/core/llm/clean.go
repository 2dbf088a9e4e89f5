package llm

import (
	"regexp"
	"strings"
)

var (
	fenceOpenRe  = regexp.MustCompile("```(?:markdown)?\\s*")
	fenceCloseRe = regexp.MustCompile("\\s*```")
	displayMath  = regexp.MustCompile(`(?s)\$\$(.*?)\$\$`)
	inlineMath   = regexp.MustCompile(`(?s)\$(.*?)\$`)
)

// CleanLLMOutput strips markdown code fences and TeX math fragments the
// chat models wrap transcriptions in.
func CleanLLMOutput(text string) string {
	text = fenceOpenRe.ReplaceAllString(text, "")
	text = fenceCloseRe.ReplaceAllString(text, "")
	text = displayMath.ReplaceAllString(text, "")
	text = inlineMath.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
