// Package settings loads the configuration of robotctl from a YAML file and
// ROBOTCTL_ environment variables.
package settings

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kellegous/poop"
	"github.com/spf13/viper"

	"github.com/tamandutech/robotble"
	"github.com/tamandutech/robotble/internal/logging"
	"github.com/tamandutech/robotble/robot"
)

type Settings struct {
	// Robots is the path of the robot registry file.
	Robots string `mapstructure:"robots"`

	// Robot is the id of the robot used when none is given on the command
	// line.
	Robot string `mapstructure:"robot"`

	// Platform overrides the platform detected at build time.
	Platform string `mapstructure:"platform"`

	Discovery DiscoverySettings     `mapstructure:"discovery"`
	Serial    SerialSettings        `mapstructure:"serial"`
	Battery   robot.BatterySettings `mapstructure:"battery"`
	Bridge    BridgeSettings        `mapstructure:"bridge"`
	Log       logging.Config        `mapstructure:"log"`
}

type DiscoverySettings struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type SerialSettings struct {
	BaudRate   int    `mapstructure:"baud_rate"`
	Terminator string `mapstructure:"terminator"`
}

type BridgeSettings struct {
	Addr string `mapstructure:"addr"`
}

func Default() *Settings {
	return &Settings{
		Robots: "robots.yaml",
		Discovery: DiscoverySettings{
			Timeout: robotble.DefaultDiscoveryTimeout,
		},
		Serial: SerialSettings{
			BaudRate:   115200,
			Terminator: "\n",
		},
		Battery: robot.DefaultBatterySettings,
		Bridge: BridgeSettings{
			Addr: "127.0.0.1:8080",
		},
		Log: logging.Config{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
		},
	}
}

// Load reads the settings in the file at path. When path is empty, a
// robotctl.yaml file is looked up in the working directory and in
// ~/.robotctl; a missing file is not an error. Environment variables such as
// ROBOTCTL_LOG_LEVEL override the file.
func Load(path string) (*Settings, error) {
	s := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ROBOTCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("robots", s.Robots)
	v.SetDefault("robot", s.Robot)
	v.SetDefault("platform", s.Platform)
	v.SetDefault("discovery.timeout", s.Discovery.Timeout)
	v.SetDefault("serial.baud_rate", s.Serial.BaudRate)
	v.SetDefault("serial.terminator", s.Serial.Terminator)
	v.SetDefault("battery.low_warning_threshold", s.Battery.LowWarningThreshold)
	v.SetDefault("battery.low_warning_interval", s.Battery.LowWarningInterval)
	v.SetDefault("bridge.addr", s.Bridge.Addr)
	v.SetDefault("log.level", s.Log.Level)
	v.SetDefault("log.format", s.Log.Format)
	v.SetDefault("log.outputs", s.Log.Outputs)
	v.SetDefault("log.development", s.Log.Development)
	v.SetDefault("log.rotation.enable", false)
	v.SetDefault("log.rotation.max_size_mb", 10)
	v.SetDefault("log.rotation.max_backups", 3)
	v.SetDefault("log.rotation.max_age_days", 28)
	v.SetDefault("log.rotation.compress", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("robotctl")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".robotctl"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, poop.Chain(err)
		}
	}

	if err := v.Unmarshal(s); err != nil {
		return nil, poop.Chain(err)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) validate() error {
	switch strings.ToLower(s.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return poop.Newf("invalid log.level %q", s.Log.Level)
	}
	if s.Discovery.Timeout <= 0 {
		return poop.Newf("invalid discovery.timeout %s", s.Discovery.Timeout)
	}
	if s.Serial.BaudRate <= 0 {
		return poop.Newf("invalid serial.baud_rate %d", s.Serial.BaudRate)
	}
	return nil
}

// CurrentPlatform returns the configured platform, or the platform the
// program was built for.
func (s *Settings) CurrentPlatform() robotble.Platform {
	if s.Platform != "" {
		return robotble.Platform(strings.ToLower(s.Platform))
	}
	return robotble.CurrentPlatform()
}
