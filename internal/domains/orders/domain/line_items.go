package domain

import (
	"regexp"
	"strconv"
	"strings"
)

var lineItemPattern = regexp.MustCompile(`^(.+?)\s+x(\d+)$`)

// LineItem is one "<name> x<qty>" entry of an order.
type LineItem struct {
	Name string
	Qty  int
}

// ParseLineItems splits the comma separated product text. Fragments that do
// not end in an x<qty> suffix are returned in dropped; blank fragments are ignored.
func ParseLineItems(text string) (items []LineItem, dropped []string) {
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		match := lineItemPattern.FindStringSubmatch(part)
		if match == nil {
			dropped = append(dropped, part)
			continue
		}
		qty, err := strconv.Atoi(match[2])
		if err != nil {
			dropped = append(dropped, part)
			continue
		}
		items = append(items, LineItem{Name: strings.TrimSpace(match[1]), Qty: qty})
	}
	return items, dropped
}
