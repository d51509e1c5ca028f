package neutronx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateModulesRejectsDuplicateNames(t *testing.T) {
	modules := []*Module{
		{Name: "users"},
		{Name: "users"},
	}

	err := ValidateModules(modules)
	assert.ErrorIs(t, err, ErrDuplicateModuleName)
}

func TestValidateModulesDetectsImportCycle(t *testing.T) {
	modules := []*Module{
		{Name: "a", Imports: []string{"b"}},
		{Name: "b", Imports: []string{"a"}},
	}

	err := ValidateModules(modules)
	require.Error(t, err)

	var cycleErr *CircularModuleImportError
	require.ErrorAs(t, err, &cycleErr)
	assert.ErrorIs(t, err, ErrCircularModuleImport)
}

func TestValidateModulesAcceptsAcyclicImports(t *testing.T) {
	modules := []*Module{
		{Name: "a", Imports: []string{"b"}},
		{Name: "b"},
	}

	assert.NoError(t, ValidateModules(modules))
}

func TestRegisterModulesRegistersImportsBeforeDependents(t *testing.T) {
	var order []string

	modules := []*Module{
		{
			Name:    "accounts",
			Imports: []string{"users"},
			Register: func(ctx *ModuleContext) error {
				order = append(order, "accounts")
				return nil
			},
		},
		{
			Name: "users",
			Register: func(ctx *ModuleContext) error {
				order = append(order, "users")
				return nil
			},
		},
	}

	c := NewContainer()
	root := NewRouter()
	registered, err := RegisterModules(modules, c, root, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{"users", "accounts"}, order)
	assert.Len(t, registered, 2)
}

func TestRegisterModulesFailsWhenExportMissing(t *testing.T) {
	modules := []*Module{
		{
			Name:     "users",
			Exports:  []string{"*neutronx.widget"},
			Register: func(ctx *ModuleContext) error { return nil },
		},
	}

	_, err := RegisterModules(modules, NewContainer(), NewRouter(), DefaultConfig())
	require.Error(t, err)

	var missing *ModuleExportMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "users", missing.Module)
}

func TestRegisterModulesSucceedsWhenExportPresent(t *testing.T) {
	modules := []*Module{
		{
			Name:    "users",
			Exports: []string{"*neutronx.widget"},
			Register: func(ctx *ModuleContext) error {
				return RegisterSingleton(ctx.Container, &widget{Name: "users"}, nil)
			},
		},
	}

	_, err := RegisterModules(modules, NewContainer(), NewRouter(), DefaultConfig())
	assert.NoError(t, err)
}

func TestRegisterModulesMountsSubRouterAtModuleName(t *testing.T) {
	modules := []*Module{
		{
			Name: "users",
			Register: func(ctx *ModuleContext) error {
				return ctx.Router.GET("/list", func(Request) (Response, error) {
					return NewTextResponse("ok"), nil
				})
			},
		},
	}

	root := NewRouter()
	_, err := RegisterModules(modules, NewContainer(), root, DefaultConfig())
	require.NoError(t, err)

	res, req, ok := root.Resolve(NewTestRequest("GET", "/users/list", nil))
	require.True(t, ok)
	resp, err := res.handler(req)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body()))
}

func TestRegisterModulesAppliesModuleMiddlewareToItsRoutes(t *testing.T) {
	var order []string
	mw := func(next Handler) Handler {
		return func(req Request) (Response, error) {
			order = append(order, "mw")
			return next(req)
		}
	}

	modules := []*Module{
		{
			Name:       "users",
			Middleware: []Middleware{mw},
			Register: func(ctx *ModuleContext) error {
				return ctx.Router.GET("/list", func(Request) (Response, error) {
					order = append(order, "handler")
					return NewTextResponse("ok"), nil
				})
			},
		},
	}

	root := NewRouter()
	_, err := RegisterModules(modules, NewContainer(), root, DefaultConfig())
	require.NoError(t, err)

	res, req, ok := root.Resolve(NewTestRequest("GET", "/users/list", nil))
	require.True(t, ok)
	_, err = res.handler(req)
	require.NoError(t, err)

	assert.Equal(t, []string{"mw", "handler"}, order)
}

func TestRegisterModulesRunsLifecycleHooksInOrder(t *testing.T) {
	var order []string

	m := &Module{
		Name: "users",
		OnInit: func() error {
			order = append(order, "onInit")
			return nil
		},
		Register: func(ctx *ModuleContext) error {
			order = append(order, "register")
			return nil
		},
		OnReady: func() error {
			order = append(order, "onReady")
			return nil
		},
	}

	_, err := RegisterModules([]*Module{m}, NewContainer(), NewRouter(), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"onInit", "register", "onReady"}, order)
}

func TestRegisterModulesAbortsOnRegisterError(t *testing.T) {
	boom := errors.New("boom")
	m := &Module{
		Name:     "users",
		Register: func(ctx *ModuleContext) error { return boom },
	}

	_, err := RegisterModules([]*Module{m}, NewContainer(), NewRouter(), DefaultConfig())
	assert.ErrorIs(t, err, boom)
}

func TestTeardownModulesRunsInReverseOrderAndSwallowsPanics(t *testing.T) {
	var order []string

	modules := []*Module{
		{Name: "a", OnDestroy: func() { order = append(order, "a") }},
		{Name: "b", OnDestroy: func() { panic("boom") }},
		{Name: "c", OnDestroy: func() { order = append(order, "c") }},
	}

	assert.NotPanics(t, func() { TeardownModules(modules, noopLogger) })
	assert.Equal(t, []string{"c", "a"}, order)
}
