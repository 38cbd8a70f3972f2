package container

import (
	"reflect"
	"sync"

	"github.com/pkg/errors"
)

// keyCache memoizes reflect.Type to key conversions; keys are computed on
// every resolve, so avoid rebuilding the string each time.
var keyCache sync.Map // reflect.Type -> string

// TypeKey returns the registry key for T: the package-qualified name of the
// type, e.g. "github.com/km-arc/go-ioc/app.UserRepository".
//
//	key := container.TypeKey[UserRepository]()
func TypeKey[T any]() string {
	return keyFor(typeOf[T]())
}

// keyFor canonicalizes a reflect.Type into a registry key. Named types key
// as pkgpath.Name, composites recurse on their element types.
func keyFor(t reflect.Type) string {
	if k, ok := keyCache.Load(t); ok {
		return k.(string)
	}
	k := buildKey(t)
	keyCache.Store(t, k)
	return k
}

func buildKey(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Pointer:
		return "*" + keyFor(t.Elem())
	case reflect.Slice:
		return "[]" + keyFor(t.Elem())
	case reflect.Map:
		return "map[" + keyFor(t.Key()) + "]" + keyFor(t.Elem())
	}
	if t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// typeOf returns the reflect.Type of T without needing a value of T,
// which matters when T is an interface.
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// abstractOf normalizes an untyped abstract marker to its reflect.Type.
// Markers are pointers to the abstract type, so interfaces stay expressible:
//
//	c.Make(ctx, (*UserRepository)(nil))  // the UserRepository interface
//	c.Make(ctx, (**gorm.DB)(nil))        // the *gorm.DB pointer type
func abstractOf(marker any) (reflect.Type, error) {
	if marker == nil {
		return nil, ErrBadAbstract
	}
	t := reflect.TypeOf(marker)
	if t.Kind() != reflect.Pointer {
		return nil, errors.Wrapf(ErrBadAbstract, "got %T", marker)
	}
	return t.Elem(), nil
}
