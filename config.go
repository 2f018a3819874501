package robotble

import (
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/kellegous/poop"
)

const baseUUIDSuffix = "-0000-1000-8000-00805f9b34fb"

// Config describes the GATT layout of a robot: service UUID to a map of
// characteristic id to characteristic UUID. Ids ending in TX are notifiable
// and ids ending in RX are written without response.
type Config struct {
	Services map[string]map[string]string `yaml:"services" json:"services"`
}

// NormalizeUUID returns the canonical lower case 128-bit form of s. 16 and
// 32-bit short UUIDs are expanded with the Bluetooth base UUID.
func NormalizeUUID(s string) (string, error) {
	s = strings.TrimSpace(s)
	switch len(s) {
	case 4:
		s = "0000" + s + baseUUIDSuffix
	case 8:
		s = s + baseUUIDSuffix
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return "", poop.Chain(err)
	}
	return id.String(), nil
}

// SameUUID reports whether a and b name the same UUID.
func SameUUID(a, b string) bool {
	na, err := NormalizeUUID(a)
	if err != nil {
		return strings.EqualFold(a, b)
	}
	nb, err := NormalizeUUID(b)
	if err != nil {
		return false
	}
	return na == nb
}

// ServiceUUIDs returns the configured service UUIDs in a stable order.
func (c *Config) ServiceUUIDs() []string {
	if c == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(c.Services))
}

// Validate checks that the configuration is usable for a connection.
func (c *Config) Validate() error {
	if c == nil || len(c.Services) == 0 {
		return poop.New("no services configured")
	}
	for service, chars := range c.Services {
		if _, err := NormalizeUUID(service); err != nil {
			return poop.Newf("invalid service uuid %q", service)
		}
		if len(chars) == 0 {
			return poop.Newf("service %s has no characteristics", service)
		}
		for id, char := range chars {
			if strings.TrimSpace(id) == "" {
				return poop.Newf("service %s has a characteristic without id", service)
			}
			if _, err := NormalizeUUID(char); err != nil {
				return poop.Newf("invalid uuid %q for characteristic %s", char, id)
			}
		}
	}
	return nil
}

// IsTX reports whether the characteristic id designates a notifiable
// characteristic.
func IsTX(id string) bool {
	return strings.HasSuffix(id, "TX")
}

// IsRX reports whether the characteristic id designates a writable
// characteristic.
func IsRX(id string) bool {
	return strings.HasSuffix(id, "RX")
}
