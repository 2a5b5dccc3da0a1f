package main

import (
	"fmt"
	"os"

	"portolan/config"
	"portolan/sdk"
)

// connect returns an SDK client by resolving the target from flags, env
// vars, a probe of the local daemon socket, or the config file's
// current-context. Resolution order:
//
//  1. hostFlag / PORTOLAN_HOST
//  2. contextFlag / PORTOLAN_CONTEXT
//  3. Local daemon socket, when one is listening
//  4. current-context from config file
func connect(hostFlag, contextFlag string) (*sdk.Client, error) {
	// 1. Direct host (flag > env).
	host := firstNonEmpty(hostFlag, os.Getenv("PORTOLAN_HOST"))
	if host != "" {
		return sdk.Dial(host)
	}

	// 2. Named context (flag > env).
	ctxName := firstNonEmpty(contextFlag, os.Getenv("PORTOLAN_CONTEXT"))
	if ctxName != "" {
		return dialContext(ctxName)
	}

	// 3. Local daemon socket.
	if socket := sdk.DefaultSocketPath(); socketExists(socket) {
		return sdk.Dial(socket)
	}

	// 4. Fall back to config's current-context.
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	name, c, ok := cfg.Current()
	if !ok {
		return nil, fmt.Errorf("no local daemon and no context configured — start portoland or run \"portolan context add\"")
	}
	target := c.Target()
	if target == "" {
		return nil, fmt.Errorf("context %q has no target", name)
	}
	return sdk.Dial(target)
}

// discover upserts the "local" context in config when a local daemon
// socket is present. It does not change current-context if one is
// already set.
func discover() error {
	socket := sdk.DefaultSocketPath()
	if !socketExists(socket) {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	cfg.Set("local", config.Context{Socket: socket})
	if cfg.CurrentContext == "" {
		cfg.CurrentContext = "local"
	}
	return cfg.Save()
}

func dialContext(name string) (*sdk.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	c, ok := cfg.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("context %q not found", name)
	}
	target := c.Target()
	if target == "" {
		return nil, fmt.Errorf("context %q has no target", name)
	}
	return sdk.Dial(target)
}

func socketExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode()&os.ModeSocket != 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
