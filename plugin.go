package neutronx

import (
	"fmt"

	"go.uber.org/zap"
)

// PluginContext is passed to a Plugin's Register hook (§4.6): the shared
// application container and root router, plus the resolved Config.
type PluginContext struct {
	Container *Container
	Router    *Router
	Config    *Config
}

// Plugin is a linear-ordered extension sharing the application DI
// container and root router, registered after all modules (§3 "Plugin").
type Plugin struct {
	Name string

	Register func(ctx *PluginContext) error

	OnInit    func() error
	OnDispose func()
}

// RegisterPlugins registers plugins in declaration order, each receiving
// a PluginContext built from container/root/config. Failure in any
// plugin's Register aborts boot (§4.6).
func RegisterPlugins(plugins []*Plugin, container *Container, root *Router, config *Config) ([]*Plugin, error) {
	ctx := &PluginContext{Container: container, Router: root, Config: config}

	var order []*Plugin
	for _, p := range plugins {
		if p.OnInit != nil {
			if err := p.OnInit(); err != nil {
				return order, &PluginRegistrationFailedError{Plugin: p.Name, Err: fmt.Errorf("onInit: %w", err)}
			}
		}

		if p.Register != nil {
			if err := p.Register(ctx); err != nil {
				return order, &PluginRegistrationFailedError{Plugin: p.Name, Err: err}
			}
		}

		order = append(order, p)
	}

	return order, nil
}

// TeardownPlugins invokes OnDispose for every plugin in reverse
// registration order, best-effort (§4.6 "On shutdown, plugins receive
// onDispose in reverse order").
func TeardownPlugins(order []*Plugin, log Logger) {
	for i := len(order) - 1; i >= 0; i-- {
		p := order[i]
		if p.OnDispose == nil {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error("plugin onDispose panicked",
						zap.String("plugin", p.Name), zap.Any("panic", r))
				}
			}()
			p.OnDispose()
		}()
	}
}
