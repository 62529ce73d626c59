package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ctolnik/oaproxy/internal/proxy"
)

// routeConfig is one entry of the configuration file's route list: the
// protocol to mediate, the local address to listen on, and the upstream
// address to relay to.
type routeConfig struct {
	Protocol      string `yaml:"protocol"`
	Listen        string `yaml:"listen"`
	Upstream      string `yaml:"upstream"`
	TLSServerName string `yaml:"tls_server_name,omitempty"`
}

// Config is the top-level configuration document.
type Config struct {
	LogLevel string        `yaml:"log_level,omitempty"`
	Routes   []routeConfig `yaml:"routes"`
	Accounts string        `yaml:"accounts"`
}

// LoadConfig reads and validates the configuration file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Routes) == 0 {
		return fmt.Errorf("config: no routes configured")
	}
	for i, r := range c.Routes {
		switch strings.ToLower(r.Protocol) {
		case "smtp", "imap":
		default:
			return fmt.Errorf("config: route %d: unknown protocol %q", i, r.Protocol)
		}
		if r.Listen == "" {
			return fmt.Errorf("config: route %d: missing listen address", i)
		}
		if r.Upstream == "" {
			return fmt.Errorf("config: route %d: missing upstream address", i)
		}
	}
	if c.Accounts == "" {
		return fmt.Errorf("config: missing accounts file")
	}
	return nil
}

// ProxyRoutes converts the configuration file's route list into the
// proxy.Route records the supervisors are constructed from.
func (c *Config) ProxyRoutes() []proxy.Route {
	out := make([]proxy.Route, 0, len(c.Routes))
	for _, r := range c.Routes {
		proto := proxy.ProtocolSMTP
		if strings.EqualFold(r.Protocol, "imap") {
			proto = proxy.ProtocolIMAP
		}
		out = append(out, proxy.Route{
			Protocol:      proto,
			Listen:        r.Listen,
			Upstream:      r.Upstream,
			TLSServerName: r.TLSServerName,
		})
	}
	return out
}
