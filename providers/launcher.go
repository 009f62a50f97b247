package providers

import (
	"fmt"
	"os"
	"strings"
)

type LaunchRequest struct {
	UserCode string
	Provider string
	SID      string
	Platform string
}

type GameLauncher interface {
	LaunchURL(req LaunchRequest) (string, error)
}

var launchers = map[string]GameLauncher{}

func Register(name string, launcher GameLauncher) {
	launchers[strings.ToLower(name)] = launcher
}

func Get(name string) GameLauncher {
	return launchers[strings.ToLower(name)]
}

// envLauncher builds launch URLs from a per-provider template env var, e.g.
// ADJOE_LAUNCH_URL=https://play.example.com/adjoe?uid=%s&sid=%s.
type envLauncher struct {
	envKey string
}

func (l envLauncher) LaunchURL(req LaunchRequest) (string, error) {
	template := os.Getenv(l.envKey)
	if template == "" {
		return "", fmt.Errorf("%s not configured", l.envKey)
	}
	return fmt.Sprintf(template, req.UserCode, req.SID), nil
}

func init() {
	Register("adjoe", envLauncher{envKey: "ADJOE_LAUNCH_URL"})
	Register("qureka", envLauncher{envKey: "QUREKA_LAUNCH_URL"})
	Register("tapjoy", envLauncher{envKey: "TAPJOY_LAUNCH_URL"})
}
