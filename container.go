package neutronx

import (
	"fmt"
	"reflect"
	"sync"
)

// lifetime is the closed sum of the three DI registration lifetimes
// (§3 DI registration). A tagged variant (rather than interface
// implementations per lifetime) keeps Resolve's dispatch a single switch,
// grounded on the same shape the pack's container implementations use for
// registration kinds (mwantia-fabric's RegistrationService).
type lifetime uint8

const (
	lifetimeEagerSingleton lifetime = iota
	lifetimeLazySingleton
	lifetimeFactory
)

type registration struct {
	lifetime lifetime
	value    any                  // eager singleton's pre-built value
	factory  func(*Container) any // lazy singleton / factory constructor
	dispose  func(any)
}

// containerCore holds the state shared between a Container and every
// scoped view of it created mid-resolution (see resolve): the mutex and
// the maps it guards. Kept separate from Container itself so a scoped
// view can carry its own per-resolution chain while still locking and
// mutating the same underlying registrations.
type containerCore struct {
	mu            sync.Mutex
	parent        *Container
	registrations map[reflect.Type]*registration
	cache         map[reflect.Type]any
	typeNames     map[string]bool
}

// Container is a type-keyed dependency injection registry with three
// lifetimes, cycle detection, and child-container read-through, as
// specified in §4.2. The zero value is not usable; build one with
// NewContainer or Container.CreateChild.
type Container struct {
	core *containerCore

	// chain is the sequence of types currently being resolved on the call
	// path that reached this particular Container value, oldest first.
	// It is empty on every Container returned by NewContainer/CreateChild
	// and non-empty only on the scoped view resolve hands to a factory
	// mid-resolution (§4.2 "resolution-stack isolation"): each resolve
	// call builds its own chain slice and threads it through the factory
	// it invokes, so concurrent resolutions on the same Container never
	// read or write a shared stack.
	chain []reflect.Type
}

// NewContainer returns an empty, parentless Container.
func NewContainer() *Container {
	return &Container{
		core: &containerCore{
			registrations: map[reflect.Type]*registration{},
			cache:         map[reflect.Type]any{},
			typeNames:     map[string]bool{},
		},
	}
}

// HasNamed reports whether a type whose reflect.Type.String() equals name
// is registered locally in c (not consulting the parent), used by the
// module subsystem's export validation (§4.5 step 3).
func (c *Container) HasNamed(name string) bool {
	c.core.mu.Lock()
	defer c.core.mu.Unlock()
	return c.core.typeNames[name]
}

// CreateChild returns an empty Container whose parent is c. Local
// registrations on the child shadow c's; c is never modified by the
// child's registrations (DI invariant 11).
func (c *Container) CreateChild() *Container {
	child := NewContainer()
	child.core.parent = c
	return child
}

func typeTagOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// RegisterSingleton registers value as an eager singleton for T. dispose,
// if non-nil, is invoked at most once during Container.Dispose.
func RegisterSingleton[T any](c *Container, value T, dispose func(T)) error {
	t := typeTagOf[T]()

	c.core.mu.Lock()
	defer c.core.mu.Unlock()

	if _, ok := c.core.registrations[t]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, t)
	}

	c.core.registrations[t] = &registration{
		lifetime: lifetimeEagerSingleton,
		value:    value,
		dispose:  disposerOf(dispose),
	}
	c.core.cache[t] = value
	c.core.typeNames[t.String()] = true

	return nil
}

// RegisterLazySingleton registers factory to be invoked at most once, on
// the first Get[T], with its result cached for subsequent calls.
func RegisterLazySingleton[T any](c *Container, factory func(*Container) T, dispose func(T)) error {
	t := typeTagOf[T]()

	c.core.mu.Lock()
	defer c.core.mu.Unlock()

	if _, ok := c.core.registrations[t]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, t)
	}

	c.core.registrations[t] = &registration{
		lifetime: lifetimeLazySingleton,
		factory:  func(cc *Container) any { return factory(cc) },
		dispose:  disposerOf(dispose),
	}
	c.core.typeNames[t.String()] = true

	return nil
}

// RegisterFactory registers factory to be invoked fresh on every Get[T].
func RegisterFactory[T any](c *Container, factory func(*Container) T) error {
	t := typeTagOf[T]()

	c.core.mu.Lock()
	defer c.core.mu.Unlock()

	if _, ok := c.core.registrations[t]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, t)
	}

	c.core.registrations[t] = &registration{
		lifetime: lifetimeFactory,
		factory:  func(cc *Container) any { return factory(cc) },
	}
	c.core.typeNames[t.String()] = true

	return nil
}

// OverrideSingleton replaces (or installs) an eager singleton for T,
// disposing of the prior cached instance if one existed. It is the only
// sanctioned re-registration path (§4.2), intended for tests and plugin
// replacement.
func OverrideSingleton[T any](c *Container, value T, dispose func(T)) {
	t := typeTagOf[T]()

	c.core.mu.Lock()
	prior, had := c.core.registrations[t]
	priorVal, hadVal := c.core.cache[t]
	c.core.registrations[t] = &registration{
		lifetime: lifetimeEagerSingleton,
		value:    value,
		dispose:  disposerOf(dispose),
	}
	c.core.cache[t] = value
	c.core.typeNames[t.String()] = true
	c.core.mu.Unlock()

	if had && prior.dispose != nil && hadVal {
		prior.dispose(priorVal)
	}
}

func disposerOf[T any](dispose func(T)) func(any) {
	if dispose == nil {
		return nil
	}
	return func(v any) { dispose(v.(T)) }
}

// Get resolves T, delegating to the parent container when T is not
// registered locally, and failing with ErrNotRegistered when it is absent
// everywhere. A dependency cycle fails with a *CircularDependencyError
// carrying the chain from the first occurrence of T to its recurrence
// (DI invariant 9).
func Get[T any](c *Container) (T, error) {
	var zero T
	t := typeTagOf[T]()

	v, err := c.resolve(t)
	if err != nil {
		return zero, err
	}

	return v.(T), nil
}

// MustGet panics if Get fails; reserved for boot-time wiring where a
// missing registration is already a fatal configuration error.
func MustGet[T any](c *Container) T {
	v, err := Get[T](c)
	if err != nil {
		panic(err)
	}
	return v
}

// resolve looks up t, using c.chain as the path that led here. The chain
// is local to this call tree: it is never stored on containerCore, so two
// goroutines resolving independently on the same Container never observe
// or mutate each other's in-flight chain (§4.2, §5 "resolution-stack
// isolation").
func (c *Container) resolve(t reflect.Type) (any, error) {
	core := c.core
	core.mu.Lock()

	reg, ok := core.registrations[t]
	if !ok {
		core.mu.Unlock()
		if core.parent != nil {
			return core.parent.resolve(t)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, t)
	}

	if reg.lifetime == lifetimeEagerSingleton {
		v := core.cache[t]
		core.mu.Unlock()
		return v, nil
	}

	if idx := indexOfType(c.chain, t); idx >= 0 {
		chain := make([]string, 0, len(c.chain)-idx+1)
		for _, s := range c.chain[idx:] {
			chain = append(chain, s.String())
		}
		chain = append(chain, t.String())
		core.mu.Unlock()
		return nil, &CircularDependencyError{Chain: chain}
	}

	if reg.lifetime == lifetimeLazySingleton {
		if v, cached := core.cache[t]; cached {
			core.mu.Unlock()
			return v, nil
		}
	}

	factory := reg.factory
	core.mu.Unlock()

	nextChain := make([]reflect.Type, len(c.chain), len(c.chain)+1)
	copy(nextChain, c.chain)
	nextChain = append(nextChain, t)
	scoped := &Container{core: core, chain: nextChain}

	v := factory(scoped)

	core.mu.Lock()
	if reg.lifetime == lifetimeLazySingleton {
		core.cache[t] = v
	}
	core.mu.Unlock()

	return v, nil
}

func indexOfType(chain []reflect.Type, t reflect.Type) int {
	for i, s := range chain {
		if s == t {
			return i
		}
	}
	return -1
}

// Dispose invokes every registered disposer for a cached singleton in this
// container exactly once. Disposer panics/errors are swallowed (recovered)
// so one failing disposer never aborts the rest of shutdown; disposal
// order is unspecified.
func (c *Container) Dispose() {
	type pending struct {
		dispose func(any)
		value   any
	}

	core := c.core
	core.mu.Lock()
	var jobs []pending
	for t, reg := range core.registrations {
		if reg.dispose == nil {
			continue
		}
		if v, ok := core.cache[t]; ok {
			jobs = append(jobs, pending{dispose: reg.dispose, value: v})
		}
	}
	core.mu.Unlock()

	for _, j := range jobs {
		func() {
			defer func() { recover() }()
			j.dispose(j.value)
		}()
	}
}
