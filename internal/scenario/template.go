package scenario

import (
	"fmt"
	"strings"
)

// render substitutes {name} placeholders in tmpl. Placeholders without a
// value are left untouched.
func render(tmpl string, values map[string]any) string {
	if len(values) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
