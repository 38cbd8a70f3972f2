package container_test

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/km-arc/go-ioc/framework/container"
)

// ── fixtures ─────────────────────────────────────────────────────────────────

type cache interface {
	Get(key string) string
}

type memCache struct{ tag string }

func (m *memCache) Get(string) string { return "mem:" + m.tag }

// ── Lifetimes ────────────────────────────────────────────────────────────────

func TestRegisterTransient_NewInstancePerResolve(t *testing.T) {
	c := container.New()
	if err := container.RegisterTransient[*memCache](c, func() *memCache { return &memCache{} }); err != nil {
		t.Fatalf("register: %v", err)
	}

	a := container.MustResolve[*memCache](context.Background(), c)
	b := container.MustResolve[*memCache](context.Background(), c)
	if a == b {
		t.Error("transient resolves should return distinct instances")
	}
}

func TestRegisterSingleton_SameInstanceEveryResolve(t *testing.T) {
	c := container.New()
	built := 0
	_ = container.RegisterSingleton[*memCache](c, func() *memCache {
		built++
		return &memCache{}
	})

	a := container.MustResolve[*memCache](context.Background(), c)
	b := container.MustResolve[*memCache](context.Background(), c)
	if a != b {
		t.Error("singleton resolves should return the same instance")
	}
	if built != 1 {
		t.Errorf("constructor ran %d times, want 1", built)
	}
}

func TestRegister_InterfaceBinding(t *testing.T) {
	c := container.New()
	_ = container.RegisterTransient[cache](c, func() *memCache { return &memCache{tag: "a"} })

	got := container.MustResolve[cache](context.Background(), c)
	if got.Get("k") != "mem:a" {
		t.Errorf("got %q, want %q", got.Get("k"), "mem:a")
	}
}

func TestInstance_ReturnsExactValue(t *testing.T) {
	c := container.New()
	pre := &memCache{tag: "pre"}
	if err := container.Instance[cache](c, pre); err != nil {
		t.Fatalf("instance: %v", err)
	}

	got := container.MustResolve[cache](context.Background(), c)
	if got != cache(pre) {
		t.Error("Instance should hand back the registered value as-is")
	}
}

func TestInstance_NilRejected(t *testing.T) {
	c := container.New()
	err := container.Instance[cache](c, nil)
	if !errors.Is(err, container.ErrNilInstance) {
		t.Errorf("got %v, want ErrNilInstance", err)
	}
}

// ── Re-registration ──────────────────────────────────────────────────────────

func TestRegister_ReplaceInvalidatesCachedSingleton(t *testing.T) {
	c := container.New()
	_ = container.RegisterSingleton[cache](c, func() *memCache { return &memCache{tag: "old"} })

	first := container.MustResolve[cache](context.Background(), c)
	if first.Get("") != "mem:old" {
		t.Fatalf("got %q, want mem:old", first.Get(""))
	}

	_ = container.RegisterSingleton[cache](c, func() *memCache { return &memCache{tag: "new"} })

	second := container.MustResolve[cache](context.Background(), c)
	if second.Get("") != "mem:new" {
		t.Errorf("re-registration should rebuild the singleton, got %q", second.Get(""))
	}
}

// ── Alias ────────────────────────────────────────────────────────────────────

func TestAlias_SharesConcreteSingleton(t *testing.T) {
	c := container.New()
	_ = container.RegisterSingleton[*memCache](c, func() *memCache { return &memCache{tag: "shared"} })
	if err := container.Alias[cache, *memCache](c); err != nil {
		t.Fatalf("alias: %v", err)
	}

	viaAlias := container.MustResolve[cache](context.Background(), c)
	direct := container.MustResolve[*memCache](context.Background(), c)
	if viaAlias != cache(direct) {
		t.Error("alias should resolve the same singleton as the concrete key")
	}
}

func TestAlias_RejectsUnassignableType(t *testing.T) {
	c := container.New()
	err := container.Alias[cache, int](c)
	if !errors.Is(err, container.ErrReturnMismatch) {
		t.Errorf("got %v, want ErrReturnMismatch", err)
	}
}

func TestAlias_ToItselfFailsAsCycle(t *testing.T) {
	c := container.New()
	if err := container.Alias[*memCache, *memCache](c); err != nil {
		t.Fatalf("alias: %v", err)
	}

	_, err := container.Resolve[*memCache](context.Background(), c)
	if !container.IsCircular(err) {
		t.Errorf("got %v, want CircularDependencyError", err)
	}
}

// ── Constructor validation ───────────────────────────────────────────────────

func TestRegister_RejectsNonFunction(t *testing.T) {
	c := container.New()
	err := container.RegisterTransient[cache](c, 42)
	if !errors.Is(err, container.ErrNotAFunction) {
		t.Errorf("got %v, want ErrNotAFunction", err)
	}
}

func TestRegister_RejectsNilConstructor(t *testing.T) {
	c := container.New()
	err := container.RegisterTransient[cache](c, nil)
	if !errors.Is(err, container.ErrNotAFunction) {
		t.Errorf("got %v, want ErrNotAFunction", err)
	}
}

func TestRegister_RejectsBadSecondReturn(t *testing.T) {
	c := container.New()
	err := container.RegisterTransient[cache](c, func() (*memCache, string) { return nil, "" })
	if !errors.Is(err, container.ErrBadConstructor) {
		t.Errorf("got %v, want ErrBadConstructor", err)
	}
}

func TestRegister_RejectsVariadic(t *testing.T) {
	c := container.New()
	err := container.RegisterTransient[cache](c, func(tags ...string) *memCache { return &memCache{} })
	if !errors.Is(err, container.ErrBadConstructor) {
		t.Errorf("got %v, want ErrBadConstructor", err)
	}
}

func TestRegister_RejectsUnassignableReturn(t *testing.T) {
	c := container.New()
	err := container.RegisterTransient[cache](c, func() int { return 0 })
	if !errors.Is(err, container.ErrReturnMismatch) {
		t.Errorf("got %v, want ErrReturnMismatch", err)
	}
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func TestBound(t *testing.T) {
	c := container.New()
	if container.Bound[cache](c) {
		t.Error("Bound should be false before registration")
	}
	_ = container.RegisterTransient[cache](c, func() *memCache { return &memCache{} })
	if !container.Bound[cache](c) {
		t.Error("Bound should be true after registration")
	}
}

func TestResolved_TracksSingletonStore(t *testing.T) {
	c := container.New()
	_ = container.RegisterSingleton[cache](c, func() *memCache { return &memCache{} })

	if container.Resolved[cache](c) {
		t.Error("Resolved should be false before first resolve")
	}
	_ = container.MustResolve[cache](context.Background(), c)
	if !container.Resolved[cache](c) {
		t.Error("Resolved should be true after first resolve")
	}
}

func TestForget_RemovesRegistration(t *testing.T) {
	c := container.New()
	_ = container.RegisterSingleton[cache](c, func() *memCache { return &memCache{} })
	_ = container.MustResolve[cache](context.Background(), c)

	container.Forget[cache](c)

	if container.Bound[cache](c) {
		t.Error("Bound should be false after Forget")
	}
	if _, err := container.Resolve[cache](context.Background(), c); !container.IsUnregistered(err) {
		t.Errorf("got %v, want UnregisteredTypeError", err)
	}
}

func TestFlush_EmptiesContainer(t *testing.T) {
	c := container.New()
	_ = container.RegisterSingleton[cache](c, func() *memCache { return &memCache{} })
	_ = container.MustResolve[cache](context.Background(), c)

	c.Flush()

	if container.Bound[cache](c) || container.Resolved[cache](c) {
		t.Error("Flush should remove bindings and cached singletons")
	}
}

func TestBindings_SortedKeys(t *testing.T) {
	c := container.New()
	_ = container.RegisterTransient[cache](c, func() *memCache { return &memCache{} })
	_ = container.RegisterTransient[*memCache](c, func() *memCache { return &memCache{} })

	keys := c.Bindings()
	if len(keys) < 2 {
		t.Fatalf("got %d keys, want at least 2", len(keys))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Errorf("keys not sorted: %q before %q", keys[i-1], keys[i])
		}
	}
}

func TestContainer_ResolvesItself(t *testing.T) {
	c := container.New()
	got := container.MustResolve[*container.Container](context.Background(), c)
	if got != c {
		t.Error("the container should resolve itself")
	}
}

// ── Untyped Make ─────────────────────────────────────────────────────────────

func TestMake_PointerMarker(t *testing.T) {
	c := container.New()
	_ = container.RegisterTransient[cache](c, func() *memCache { return &memCache{tag: "m"} })

	raw, err := c.Make(context.Background(), (*cache)(nil))
	if err != nil {
		t.Fatalf("make: %v", err)
	}
	if _, ok := raw.(cache); !ok {
		t.Errorf("got %T, want cache", raw)
	}
}

func TestMake_RejectsNonPointerMarker(t *testing.T) {
	c := container.New()
	_, err := c.Make(context.Background(), 42)
	if !errors.Is(err, container.ErrBadAbstract) {
		t.Errorf("got %v, want ErrBadAbstract", err)
	}
}

// ── Type keys ────────────────────────────────────────────────────────────────

func TestTypeKey_QualifiesByPackage(t *testing.T) {
	key := container.TypeKey[cache]()
	if !strings.HasSuffix(key, ".cache") {
		t.Errorf("got %q, want a .cache suffix", key)
	}
	if !strings.Contains(key, "/") {
		t.Errorf("got %q, want a package-qualified key", key)
	}
}

func TestTypeKey_PointerPrefix(t *testing.T) {
	key := container.TypeKey[*memCache]()
	if !strings.HasPrefix(key, "*") {
		t.Errorf("got %q, want a * prefix for pointer types", key)
	}
}

// ── Observer ─────────────────────────────────────────────────────────────────

func TestWithObserver_SeesConstructionAndHits(t *testing.T) {
	var events []container.ResolveEvent
	c := container.New(container.WithObserver(func(ev container.ResolveEvent) {
		events = append(events, ev)
	}))
	_ = container.RegisterSingleton[cache](c, func() *memCache { return &memCache{} })

	_ = container.MustResolve[cache](context.Background(), c)
	_ = container.MustResolve[cache](context.Background(), c)

	var constructed, hits int
	for _, ev := range events {
		if ev.Key != container.TypeKey[cache]() {
			continue
		}
		if ev.CacheHit {
			hits++
		} else {
			constructed++
		}
	}
	if constructed != 1 {
		t.Errorf("observed %d constructions, want 1", constructed)
	}
	if hits != 1 {
		t.Errorf("observed %d cache hits, want 1", hits)
	}
}
