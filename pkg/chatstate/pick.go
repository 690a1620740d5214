package chatstate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/casepulse-ai/casepulse-engine/pkg/models"
)

var digitsRx = regexp.MustCompile(`^\s*#?\s*(\d+)\s*\.?\s*$`)

// ResolvePick matches a user reply against an outstanding option list.
// Accepted forms, in order: a 1-based option number ("2", "#2", "2."), an
// exact label or value match, and finally a substring match in either
// direction. A substring that hits more than one option resolves nothing.
func ResolvePick(pending *models.PendingPick, reply string) *models.PickOption {
	if pending == nil || len(pending.Options) == 0 {
		return nil
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil
	}

	if m := digitsRx.FindStringSubmatch(reply); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 1 && n <= len(pending.Options) {
			return &pending.Options[n-1]
		}
		return nil
	}

	lower := strings.ToLower(reply)
	for i := range pending.Options {
		opt := &pending.Options[i]
		if strings.EqualFold(opt.Label, reply) || strings.EqualFold(opt.Value, reply) {
			return opt
		}
	}

	var matched *models.PickOption
	for i := range pending.Options {
		opt := &pending.Options[i]
		label := strings.ToLower(opt.Label)
		value := strings.ToLower(opt.Value)
		if strings.Contains(label, lower) || strings.Contains(lower, label) ||
			strings.Contains(value, lower) || strings.Contains(lower, value) {
			if matched != nil {
				return nil
			}
			matched = opt
		}
	}
	return matched
}

// LooksLikePickReply reports whether a message reads as a bare option choice
// rather than a new question. Used to tell an expired pick apart from a fresh
// query when no pending state survives.
func LooksLikePickReply(message string) bool {
	return digitsRx.MatchString(message)
}
