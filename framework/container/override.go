package container

// override is one entry in the override table, which wins over the
// registration table during resolution. Type overrides carry their own
// binding (constructor + lifetime); instance overrides short-circuit
// resolution entirely.
type override struct {
	binding    *binding
	instance   any
	isInstance bool
}

// Override installs a type override for T: until Reset, resolves of T use
// ctor instead of the registration. The lifetime defaults to Transient so
// test doubles do not linger in caches. Installing an override drops T's
// cached singleton immediately.
//
//	container.Override[Mailer](c, NewFakeMailer)
//	container.Override[Clock](c, NewFrozenClock, container.Singleton)
func Override[T any](c *Container, ctor any, lt ...Lifetime) error {
	lifetime := Transient
	if len(lt) > 0 {
		lifetime = lt[0]
	}
	b, err := newBinding(typeOf[T](), ctor, lifetime)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overrides[b.key] = &override{binding: b}
	c.invalidateLocked(b.key)
	return nil
}

// OverrideInstance installs an instance override for T: resolves of T
// return exactly value, bypassing construction, caching, and teardown
// tracking. Instance overrides outrank type overrides.
//
//	container.OverrideInstance[Mailer](c, &mailerSpy{})
func OverrideInstance[T any](c *Container, value T) {
	key := TypeKey[T]()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overrides[key] = &override{instance: value, isInstance: true}
	c.invalidateLocked(key)
}

// Reset removes T's override, if any, and drops T's cached singleton so the
// next resolve reconstructs under the original registration. The cache is
// not repopulated eagerly.
func Reset[T any](c *Container) {
	key := TypeKey[T]()
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.overrides, key)
	c.invalidateLocked(key)
}

// ResetAll removes every override and drops their cached singletons.
func (c *Container) ResetAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.overrides {
		c.invalidateLocked(key)
	}
	c.overrides = make(map[string]*override)
}

// WithOverride installs a type override for T, runs fn, and restores
// whatever was in the override table before, on every exit path including
// panic. Overrides installed inside fn for other types are untouched.
//
//	err := container.WithOverride[Mailer](c, NewFakeMailer, func() error {
//	    return runCheckout(ctx, c)
//	})
func WithOverride[T any](c *Container, ctor any, fn func() error) error {
	b, err := newBinding(typeOf[T](), ctor, Transient)
	if err != nil {
		return err
	}
	restore := c.swapOverride(b.key, &override{binding: b})
	defer restore()
	return fn()
}

// WithOverrideInstance is WithOverride for a pre-built value.
func WithOverrideInstance[T any](c *Container, value T, fn func() error) error {
	restore := c.swapOverride(TypeKey[T](), &override{instance: value, isInstance: true})
	defer restore()
	return fn()
}

// swapOverride installs o under key and returns the function that puts the
// previous table entry (or its absence) back.
func (c *Container) swapOverride(key string, o *override) func() {
	c.mu.Lock()
	prev, had := c.overrides[key]
	c.overrides[key] = o
	c.invalidateLocked(key)
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if had {
			c.overrides[key] = prev
		} else {
			delete(c.overrides, key)
		}
		c.invalidateLocked(key)
	}
}
