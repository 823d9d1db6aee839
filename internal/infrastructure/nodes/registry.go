package nodes

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Node describes one Hydra node endpoint the client may attach to.
type Node struct {
	Name        string        `mapstructure:"name"`
	URL         string        `mapstructure:"url"`
	Description string        `mapstructure:"description"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Retries     int           `mapstructure:"retries"`
	Enabled     bool          `mapstructure:"enabled"`
}

type Registry struct {
	nodes []Node
}

// LoadRegistry reads the node inventory from a YAML file. Disabled
// entries are kept so they can be reported, but never probed.
func LoadRegistry(path string) (*Registry, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read nodes file: %s", err)
	}

	var nodes []Node
	if err := v.UnmarshalKey("nodes", &nodes); err != nil {
		return nil, fmt.Errorf("failed to parse nodes file: %s", err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("nodes file %s lists no nodes", path)
	}

	for i := range nodes {
		if nodes[i].Name == "" {
			return nil, fmt.Errorf("node at index %d is missing a name", i)
		}
		if nodes[i].URL == "" {
			return nil, fmt.Errorf("node %s is missing a url", nodes[i].Name)
		}
		if nodes[i].Timeout <= 0 {
			nodes[i].Timeout = 5 * time.Second
		}
		if nodes[i].Retries <= 0 {
			nodes[i].Retries = 1
		}
	}

	return &Registry{nodes}, nil
}

// NewRegistry builds a registry from an in-memory node list.
func NewRegistry(nodes []Node) (*Registry, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("node list is empty")
	}
	return &Registry{nodes}, nil
}

func (r *Registry) Nodes() []Node {
	out := make([]Node, len(r.nodes))
	copy(out, r.nodes)
	return out
}

func (r *Registry) Enabled() []Node {
	out := make([]Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		if n.Enabled {
			out = append(out, n)
		}
	}
	return out
}
