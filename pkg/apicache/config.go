package apicache

import (
	"errors"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a TTL configuration cannot be
// parsed.
var ErrInvalidConfig = errors.New("apicache: invalid TTL configuration")

// Duration is a time.Duration that unmarshals from YAML strings like
// "90s" or "5m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	*d = Duration(dur)
	return nil
}

// ResourceTTL holds the TTLs of one resource type. Listings usually
// get a short TTL (membership changes often), entities a longer one.
type ResourceTTL struct {
	Entity Duration `yaml:"entity"`
	List   Duration `yaml:"list"`
}

// Config maps resource types to their TTLs. TTLs are configuration
// reflecting each resource's volatility, not per-call-site constants.
type Config struct {
	// DefaultTTL applies wherever a resource has no explicit TTL.
	DefaultTTL Duration `yaml:"default_ttl"`

	// Resources holds per-resource overrides keyed by resource type.
	Resources map[string]ResourceTTL `yaml:"resources"`
}

// LoadConfig parses a YAML TTL configuration:
//
//	default_ttl: 5m
//	resources:
//	  client:
//	    entity: 30m
//	    list: 90s
//	  invoice:
//	    entity: 10m
//	    list: 60s
func LoadConfig(r io.Reader) (Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	return cfg, nil
}

// entityTTL resolves the entity TTL for a resource type.
func (c Config) entityTTL(resource string) time.Duration {
	if r, ok := c.Resources[resource]; ok && r.Entity != 0 {
		return time.Duration(r.Entity)
	}
	return time.Duration(c.DefaultTTL)
}

// listTTL resolves the listing TTL for a resource type.
func (c Config) listTTL(resource string) time.Duration {
	if r, ok := c.Resources[resource]; ok && r.List != 0 {
		return time.Duration(r.List)
	}
	return time.Duration(c.DefaultTTL)
}
