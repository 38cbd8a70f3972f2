package container

// Lifetime controls how long a resolved instance is reused.
//
//	Transient  new instance on every resolve
//	Scoped     one instance per active scope (per request, usually)
//	Singleton  one instance for the life of the container
type Lifetime int

const (
	// Transient instances are never cached. The container hands ownership
	// to the caller, including teardown.
	Transient Lifetime = iota

	// Scoped instances are cached in the scope carried by the resolving
	// context and torn down when that scope ends.
	Scoped

	// Singleton instances are cached in the container and torn down by
	// DisposeAllSingletons.
	Singleton
)

func (l Lifetime) String() string {
	switch l {
	case Transient:
		return "transient"
	case Scoped:
		return "scoped"
	case Singleton:
		return "singleton"
	default:
		return "unknown"
	}
}
