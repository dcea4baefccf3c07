package http

import (
	"strings"

	xutil "ETFAdvisor/pkg/util"
)

// ParseSymbols splits a comma separated query value into upper-cased symbols.
func ParseSymbols(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return xutil.SplitSymbols(s)
}
