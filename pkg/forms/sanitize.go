package forms

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richTextPolicyOnce  sync.Once
	richTextPolicy      *bluemonday.Policy
	plainTextPolicyOnce sync.Once
	plainTextPolicy     *bluemonday.Policy
)

func richText() *bluemonday.Policy {
	richTextPolicyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowStyles("text-align").OnElements("div", "p", "span")
		richTextPolicy = p
	})
	return richTextPolicy
}

func plainText() *bluemonday.Policy {
	plainTextPolicyOnce.Do(func() {
		plainTextPolicy = bluemonday.StrictPolicy()
	})
	return plainTextPolicy
}

// SanitizeRichText strips everything but basic formatting from editor
// content before it is embedded into a page or report.
func SanitizeRichText(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return richText().Sanitize(value)
}

// StripTags removes all markup, leaving text only. Used for AsciiDoc and PDF
// output of editor content.
func StripTags(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(plainText().Sanitize(value)))
}
