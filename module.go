package neutronx

import (
	"fmt"

	"go.uber.org/zap"
)

// ModuleContext is passed to a Module's register hook (§4.5 step 2): the
// application container, a RouteGroup over the module's private router
// (later mounted at /<name>) with the module's own Middleware already
// wired in, and the resolved Config.
type ModuleContext struct {
	Container *Container
	Router    *RouteGroup
	Config    *Config
}

// Module is a named, self-contained feature unit owning its own DI
// registrations and a private sub-router mounted at /<name> (§3 "Module").
type Module struct {
	Name    string
	Imports []string

	// Middleware wraps every route the module registers through
	// ctx.Router, applied via the RouteGroup the module subsystem
	// builds its private sub-router with (outermost-first).
	Middleware []Middleware

	// Register performs the module's DI registrations and route
	// declarations against ctx.
	Register func(ctx *ModuleContext) error

	// Exports lists the type names that Register must have registered
	// in ctx.Container before registration is considered successful
	// (§4.5 step 3). Checked with Container.HasNamed, keyed by the same
	// string form used elsewhere for diagnostics (reflect.Type.String()).
	Exports []string

	OnInit    func() error
	OnReady   func() error
	OnDestroy func()
}

// moduleColor is the three-state DFS marking used for import-cycle
// detection (§4.5 Validation: "DFS with white/grey/black coloring").
type moduleColor uint8

const (
	colorWhite moduleColor = iota
	colorGrey
	colorBlack
)

// ValidateModules fails if any two modules share a name, or if the
// imports graph contains a cycle (§4.5 Validation, module invariants
// 12-13).
func ValidateModules(modules []*Module) error {
	byName := map[string]*Module{}
	for _, m := range modules {
		if _, dup := byName[m.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateModuleName, m.Name)
		}
		byName[m.Name] = m
	}

	colors := map[string]moduleColor{}
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		switch colors[name] {
		case colorBlack:
			return nil
		case colorGrey:
			chain := append(append([]string{}, stack...), name)
			return &CircularModuleImportError{Chain: chain}
		}

		m, ok := byName[name]
		if !ok {
			return nil // dangling import name validated separately by caller
		}

		colors[name] = colorGrey
		stack = append(stack, name)

		for _, dep := range m.Imports {
			if err := visit(dep); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		colors[name] = colorBlack

		return nil
	}

	for _, m := range modules {
		if err := visit(m.Name); err != nil {
			return err
		}
	}

	return nil
}

// RegisterModules performs the post-order DFS registration traversal of
// §4.5: each top-level module, in declared order, is registered only
// after all of its imports; within a module, OnInit precedes Register
// precedes the export assertion precedes mounting precedes OnReady
// (module invariant 15). Export assertions are checked against
// container via Container.HasNamed.
func RegisterModules(modules []*Module, container *Container, root *Router, config *Config) ([]*Module, error) {
	byName := map[string]*Module{}
	for _, m := range modules {
		byName[m.Name] = m
	}

	registered := map[string]bool{}
	var order []*Module

	var register func(m *Module) error
	register = func(m *Module) error {
		if registered[m.Name] {
			return nil
		}

		for _, dep := range m.Imports {
			if depMod, ok := byName[dep]; ok {
				if err := register(depMod); err != nil {
					return err
				}
			}
		}

		if m.OnInit != nil {
			if err := m.OnInit(); err != nil {
				return fmt.Errorf("module %q onInit: %w", m.Name, err)
			}
		}

		sub := NewRouter()
		group := NewRouteGroup(sub, "/", m.Middleware...)
		ctx := &ModuleContext{Container: container, Router: group, Config: config}

		if m.Register != nil {
			if err := m.Register(ctx); err != nil {
				return fmt.Errorf("module %q register: %w", m.Name, err)
			}
		}

		for _, exp := range m.Exports {
			if !container.HasNamed(exp) {
				return &ModuleExportMissingError{Module: m.Name, Type: exp}
			}
		}

		root.Mount("/"+m.Name, sub)

		if m.OnReady != nil {
			if err := m.OnReady(); err != nil {
				return fmt.Errorf("module %q onReady: %w", m.Name, err)
			}
		}

		registered[m.Name] = true
		order = append(order, m)

		return nil
	}

	for _, m := range modules {
		if err := register(m); err != nil {
			return order, err
		}
	}

	return order, nil
}

// TeardownModules invokes OnDestroy for every module in reverse
// registration order, best-effort: errors are logged, never re-raised
// (§4.5 Teardown, module invariant 16).
func TeardownModules(order []*Module, log Logger) {
	for i := len(order) - 1; i >= 0; i-- {
		m := order[i]
		if m.OnDestroy == nil {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error("module onDestroy panicked",
						zap.String("module", m.Name), zap.Any("panic", r))
				}
			}()
			m.OnDestroy()
		}()
	}
}
