package domain

import (
	"strconv"
	"strings"
)

// ParseAmount converts user text into a positive whole share count.
// Anything that is not a positive base-10 integer fitting int64 is rejected.
func ParseAmount(text string) (int64, bool) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "+")
	if text == "" || strings.HasPrefix(text, "+") || strings.HasPrefix(text, "-") {
		return 0, false
	}

	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}

	return n, true
}
