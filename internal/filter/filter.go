// Package filter narrows conversation summaries by inbox tab and search text.
package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Digigit24/celiyo-new-sub001/internal/message"
)

// Tab selects a slice of the inbox.
type Tab string

const (
	TabAll        Tab = "all"
	TabMine       Tab = "mine"
	TabUnassigned Tab = "unassigned"
)

// ParseTab maps a raw tab name to a Tab. Empty means TabAll.
func ParseTab(raw string) (Tab, error) {
	switch t := Tab(strings.ToLower(strings.TrimSpace(raw))); t {
	case "":
		return TabAll, nil
	case TabAll, TabMine, TabUnassigned:
		return t, nil
	default:
		return "", fmt.Errorf("unknown tab %q", raw)
	}
}

// Apply returns the summaries on tab whose name or last message contains
// search, case-insensitively. A blank search keeps everything on the tab.
// The input slice is not modified.
func Apply(summaries []message.Summary, tab Tab, search string) []message.Summary {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]message.Summary, 0, len(summaries))
	for _, s := range summaries {
		if !onTab(s, tab) {
			continue
		}
		if needle != "" && !matches(s, needle) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func onTab(s message.Summary, tab Tab) bool {
	switch tab {
	case TabMine:
		return assignedToMe(s)
	case TabUnassigned:
		return !assignedToMe(s)
	default:
		return true
	}
}

// assignedToMe is a placeholder: there is no owner attribute on a
// conversation, so even numeric ids count as mine. Non-numeric ids are
// unassigned. Replace once the backend exposes an assignee.
func assignedToMe(s message.Summary) bool {
	n, err := strconv.ParseUint(strings.TrimSpace(s.ID), 10, 64)
	if err != nil {
		return false
	}
	return n%2 == 0
}

func matches(s message.Summary, needle string) bool {
	return strings.Contains(strings.ToLower(s.Name), needle) ||
		strings.Contains(strings.ToLower(s.LastMessage), needle)
}
