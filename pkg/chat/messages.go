package chat

import (
	"fmt"
	"strings"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Mode selects how the backend answers a message
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeDeep   Mode = "deep"
	ModeLab    Mode = "lab"
)

// ParseMode accepts the persisted or user-typed mode name
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeNormal, "":
		return ModeNormal, nil
	case ModeDeep, "deep_search", "deep-search":
		return ModeDeep, nil
	case ModeLab, "lab_mode":
		return ModeLab, nil
	default:
		return ModeNormal, fmt.Errorf("unknown mode %q (want normal, deep or lab)", s)
	}
}

// DeepSearch reports the deep_search form flag for this mode
func (m Mode) DeepSearch() bool { return m == ModeDeep }

// LabMode reports the lab_mode form flag for this mode
func (m Mode) LabMode() bool { return m == ModeLab }

func (m Mode) String() string {
	if m == "" {
		return string(ModeNormal)
	}
	return string(m)
}
