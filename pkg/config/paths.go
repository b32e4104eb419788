package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// SettingsDirName is the per-project settings directory
const SettingsDirName = ".deepship"

func BaseSettingsDir() string {
	// Check if config.path is explicitly set (for testing)
	if configPath := viper.GetString("config.path"); configPath != "" {
		return configPath
	}

	currentConfig := viper.ConfigFileUsed()
	if currentConfig == "" {
		return SettingsDirName
	}
	return filepath.Dir(currentConfig)
}

func BuildSettingsPath(target string) string {
	return filepath.Join(BaseSettingsDir(), target)
}

// VoiceURLFromBase maps an http(s) API base onto the voice websocket endpoint.
func VoiceURLFromBase(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/voice"
	u.RawQuery = ""
	return u.String()
}

// ParseSize parses sizes such as "512KB", "10MB" or a bare byte count.
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	multiplier := int64(1)
	for _, unit := range []struct {
		suffix string
		factor int64
	}{
		{"GB", 1 << 30},
		{"MB", 1 << 20},
		{"KB", 1 << 10},
		{"B", 1},
	} {
		if strings.HasSuffix(s, unit.suffix) {
			multiplier = unit.factor
			s = strings.TrimSpace(strings.TrimSuffix(s, unit.suffix))
			break
		}
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return int64(n * float64(multiplier)), nil
}
