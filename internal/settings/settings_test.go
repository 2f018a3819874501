package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tamandutech/robotble"
)

func writeFile(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "robotctl.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	s, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if s.Discovery.Timeout != 5*time.Second {
		t.Fatalf("unexpected discovery timeout %s", s.Discovery.Timeout)
	}
	if s.Battery.LowWarningThreshold != 6000 || s.Battery.LowWarningInterval != time.Minute {
		t.Fatalf("unexpected battery settings %+v", s.Battery)
	}
	if s.Serial.Terminator != "\n" {
		t.Fatalf("unexpected terminator %q", s.Serial.Terminator)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
robots: /etc/robotctl/robots.yaml
robot: "1"
platform: web
discovery:
  timeout: 10s
battery:
  low_warning_threshold: 7200
  low_warning_interval: 30s
log:
  level: debug
`)

	t.Setenv("ROBOTCTL_BRIDGE_ADDR", ":9090")

	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if s.Robots != "/etc/robotctl/robots.yaml" || s.Robot != "1" {
		t.Fatalf("unexpected robot settings %+v", s)
	}
	if s.CurrentPlatform() != robotble.PlatformWeb {
		t.Fatalf("unexpected platform %s", s.CurrentPlatform())
	}
	if s.Discovery.Timeout != 10*time.Second {
		t.Fatalf("unexpected discovery timeout %s", s.Discovery.Timeout)
	}
	if s.Battery.LowWarningThreshold != 7200 || s.Battery.LowWarningInterval != 30*time.Second {
		t.Fatalf("unexpected battery settings %+v", s.Battery)
	}
	if s.Log.Level != "debug" {
		t.Fatalf("unexpected log level %s", s.Log.Level)
	}
	if s.Bridge.Addr != ":9090" {
		t.Fatalf("expected env override, got %s", s.Bridge.Addr)
	}
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Load(writeFile(t, "log:\n  level: chatty\n")); err == nil {
		t.Fatal("expected invalid level to be rejected")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected missing file to be an error")
	}
}
