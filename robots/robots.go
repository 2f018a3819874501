// Package robots loads the list of known robots and how to reach them.
package robots

import (
	"io"
	"os"
	"slices"

	"github.com/kellegous/poop"
	"gopkg.in/yaml.v3"

	"github.com/tamandutech/robotble"
)

// Robot describes a line follower the dashboard can connect to.
type Robot struct {
	ID         string `yaml:"id" json:"id"`
	Name       string `yaml:"name" json:"name"`
	NamePrefix string `yaml:"name_prefix" json:"name_prefix"`

	// Interface is "ble" or "serial".
	Interface string `yaml:"interface" json:"interface"`

	robotble.Config `yaml:",inline"`
}

// Prefix returns the name prefix used to discover the robot. It defaults to
// the robot's name.
func (r *Robot) Prefix() string {
	if r.NamePrefix != "" {
		return r.NamePrefix
	}
	return r.Name
}

type Registry struct {
	Robots []*Robot `yaml:"robots"`
}

// Read decodes a registry from r and validates every robot in it.
func Read(r io.Reader) (*Registry, error) {
	var reg Registry
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&reg); err != nil && err != io.EOF {
		return nil, poop.Chain(err)
	}

	seen := map[string]bool{}
	for i, robot := range reg.Robots {
		if robot.ID == "" {
			return nil, poop.Newf("robot %d has no id", i)
		}
		if seen[robot.ID] {
			return nil, poop.Newf("duplicate robot id %q", robot.ID)
		}
		seen[robot.ID] = true

		if robot.Prefix() == "" {
			return nil, poop.Newf("robot %s has no name", robot.ID)
		}
		if err := robot.Config.Validate(); err != nil {
			return nil, poop.Chain(err)
		}
	}
	return &reg, nil
}

// Load reads the registry in the file at path.
func Load(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, poop.Chain(err)
	}
	defer f.Close()

	return Read(f)
}

// Lookup returns the robot with the given id.
func (r *Registry) Lookup(id string) (*Robot, bool) {
	i := slices.IndexFunc(r.Robots, func(robot *Robot) bool {
		return robot.ID == id
	})
	if i < 0 {
		return nil, false
	}
	return r.Robots[i], true
}
