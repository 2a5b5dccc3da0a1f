// Package config persists CLI connection contexts.
//
// Contexts follow the kubeconfig pattern: a named set of daemon
// targets plus a current-context selector, stored as YAML under
// $XDG_CONFIG_HOME/portolan (~/.config/portolan by default).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Context is one way of reaching a portolan daemon.
type Context struct {
	URL    string `yaml:"url,omitempty"`    // http(s) base URL of the daemon API
	Socket string `yaml:"socket,omitempty"` // unix socket path
	Host   string `yaml:"host,omitempty"`   // user@host for SSH
}

// Target returns the dial target for this context. URL takes
// precedence, then Socket, then Host.
func (c Context) Target() string {
	switch {
	case c.URL != "":
		return c.URL
	case c.Socket != "":
		return c.Socket
	default:
		return c.Host
	}
}

// Kind names the connection type for display purposes.
func (c Context) Kind() string {
	switch {
	case c.URL != "":
		return "http"
	case c.Socket != "":
		return "local"
	default:
		return "ssh"
	}
}

// Config holds named daemon contexts and the current selection.
type Config struct {
	CurrentContext string             `yaml:"current-context"`
	Contexts       map[string]Context `yaml:"contexts"`
}

// Path returns the config file location, honoring XDG_CONFIG_HOME.
func Path() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		if home, err := os.UserHomeDir(); err == nil {
			base = filepath.Join(home, ".config")
		} else {
			base = ".config"
		}
	}
	return filepath.Join(base, "portolan", "config.yaml")
}

// Load reads the config file. A missing file yields an empty config,
// not an error, so first runs need no setup.
func Load() (*Config, error) {
	cfg := &Config{Contexts: make(map[string]Context)}

	data, err := os.ReadFile(Path())
	switch {
	case errors.Is(err, os.ErrNotExist):
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]Context)
	}
	return cfg, nil
}

// Save writes the config back, creating the directory on first use.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Names returns the context names in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Current returns the selected context. The bool is false when
// nothing is selected or the selection no longer exists.
func (c *Config) Current() (string, Context, bool) {
	if c.CurrentContext == "" {
		return "", Context{}, false
	}
	ctx, ok := c.Contexts[c.CurrentContext]
	if !ok {
		return "", Context{}, false
	}
	return c.CurrentContext, ctx, true
}

// Use selects an existing context by name.
func (c *Config) Use(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return nil
}

// Set adds or replaces a named context.
func (c *Config) Set(name string, ctx Context) {
	c.Contexts[name] = ctx
}

// Remove deletes a context, clearing current-context when it pointed
// at the removed name.
func (c *Config) Remove(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return nil
}
