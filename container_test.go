package neutronx

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct{ Name string }

type gadget struct{ Widget *widget }

func TestRegisterSingletonReturnsSameInstance(t *testing.T) {
	c := NewContainer()
	require.NoError(t, RegisterSingleton(c, &widget{Name: "a"}, nil))

	w1, err := Get[*widget](c)
	require.NoError(t, err)
	w2, err := Get[*widget](c)
	require.NoError(t, err)

	assert.Same(t, w1, w2)
}

func TestRegisterFactoryBuildsFreshValueEachGet(t *testing.T) {
	c := NewContainer()
	n := 0
	require.NoError(t, RegisterFactory(c, func(*Container) *widget {
		n++
		return &widget{Name: "x"}
	}))

	w1, err := Get[*widget](c)
	require.NoError(t, err)
	w2, err := Get[*widget](c)
	require.NoError(t, err)

	assert.NotSame(t, w1, w2)
	assert.Equal(t, 2, n)
}

func TestRegisterLazySingletonBuildsOnceOnFirstGet(t *testing.T) {
	c := NewContainer()
	n := 0
	require.NoError(t, RegisterLazySingleton(c, func(*Container) *widget {
		n++
		return &widget{Name: "lazy"}
	}, nil))

	assert.Equal(t, 0, n, "a lazy singleton must not build before first Get")

	w1, err := Get[*widget](c)
	require.NoError(t, err)
	w2, err := Get[*widget](c)
	require.NoError(t, err)

	assert.Same(t, w1, w2)
	assert.Equal(t, 1, n)
}

func TestRegisterSingletonTwiceFails(t *testing.T) {
	c := NewContainer()
	require.NoError(t, RegisterSingleton(c, &widget{}, nil))

	err := RegisterSingleton(c, &widget{}, nil)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestGetUnregisteredTypeFails(t *testing.T) {
	c := NewContainer()

	_, err := Get[*widget](c)
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestCircularDependencyDetectedWithFullChain(t *testing.T) {
	c := NewContainer()

	require.NoError(t, RegisterLazySingleton(c, func(cc *Container) *widget {
		_, _ = Get[*gadget](cc)
		return &widget{}
	}, nil))
	require.NoError(t, RegisterLazySingleton(c, func(cc *Container) *gadget {
		_, _ = Get[*widget](cc)
		return &gadget{}
	}, nil))

	_, err := Get[*widget](c)
	require.Error(t, err)

	var cycleErr *CircularDependencyError
	require.ErrorAs(t, err, &cycleErr)
	assert.ErrorIs(t, err, ErrCircularDependency)
	assert.GreaterOrEqual(t, len(cycleErr.Chain), 2)
	assert.Equal(t, cycleErr.Chain[0], cycleErr.Chain[len(cycleErr.Chain)-1])
}

func TestConcurrentResolutionsOnSameContainerDoNotCorruptEachOther(t *testing.T) {
	c := NewContainer()

	require.NoError(t, RegisterLazySingleton(c, func(*Container) *widget {
		time.Sleep(5 * time.Millisecond)
		return &widget{Name: "w"}
	}, nil))
	require.NoError(t, RegisterLazySingleton(c, func(*Container) *gadget {
		time.Sleep(5 * time.Millisecond)
		return &gadget{}
	}, nil))

	var wg sync.WaitGroup
	errs := make(chan error, 40)

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := Get[*widget](c)
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := Get[*gadget](c)
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err, "unrelated concurrent resolutions must never report a spurious cycle")
	}
}

func TestOverrideSingletonReplacesValueAndDisposesPrior(t *testing.T) {
	c := NewContainer()
	disposed := ""
	require.NoError(t, RegisterSingleton(c, &widget{Name: "first"}, func(w *widget) {
		disposed = w.Name
	}))

	OverrideSingleton(c, &widget{Name: "second"}, nil)

	w, err := Get[*widget](c)
	require.NoError(t, err)
	assert.Equal(t, "second", w.Name)
	assert.Equal(t, "first", disposed)
}

func TestChildContainerShadowsAndReadsThroughToParent(t *testing.T) {
	parent := NewContainer()
	require.NoError(t, RegisterSingleton(parent, &widget{Name: "parent"}, nil))

	child := parent.CreateChild()

	w, err := Get[*widget](child)
	require.NoError(t, err)
	assert.Equal(t, "parent", w.Name, "an unregistered type in the child reads through to the parent")

	require.NoError(t, RegisterSingleton(child, &widget{Name: "child"}, nil))
	w, err = Get[*widget](child)
	require.NoError(t, err)
	assert.Equal(t, "child", w.Name)

	pw, err := Get[*widget](parent)
	require.NoError(t, err)
	assert.Equal(t, "parent", pw.Name, "child registrations must never leak back into the parent")
}

func TestHasNamedReflectsLocalRegistrationsOnly(t *testing.T) {
	c := NewContainer()
	require.NoError(t, RegisterSingleton(c, &widget{}, nil))

	assert.True(t, c.HasNamed("*neutronx.widget"))
	assert.False(t, c.HasNamed("*neutronx.gadget"))

	child := c.CreateChild()
	assert.False(t, child.HasNamed("*neutronx.widget"), "HasNamed must not consult the parent")
}

func TestDisposeInvokesEachDisposerAtMostOnce(t *testing.T) {
	c := NewContainer()
	calls := 0
	require.NoError(t, RegisterSingleton(c, &widget{Name: "a"}, func(*widget) { calls++ }))
	require.NoError(t, RegisterLazySingleton(c, func(*Container) *gadget { return &gadget{} }, func(*gadget) { calls++ }))

	// the lazy singleton is never resolved, so its disposer must not run
	c.Dispose()

	assert.Equal(t, 1, calls)
}

func TestDisposeSwallowsPanickingDisposer(t *testing.T) {
	c := NewContainer()
	require.NoError(t, RegisterSingleton(c, &widget{Name: "a"}, func(*widget) { panic("boom") }))

	assert.NotPanics(t, func() { c.Dispose() })
}
