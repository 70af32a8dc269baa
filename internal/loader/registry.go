package loader

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/eugenenazirov/confsubst/internal/logname"
)

var errorType = reflect.TypeFor[error]()

// TypeRegistry is what Instantiate needs from a loader: look a type up by
// name, check it against a capability and build it.
type TypeRegistry interface {
	Resolve(name string) (*TypeDescriptor, error)
	IsAssignable(desc *TypeDescriptor, capability reflect.Type) bool
	Construct(desc *TypeDescriptor, argType reflect.Type, arg any) (any, error)
}

type constructor struct {
	fn      reflect.Value
	argType reflect.Type
	withErr bool
}

// TypeDescriptor describes a registered type and the constructors it can be
// built with.
type TypeDescriptor struct {
	Name  string
	Type  reflect.Type
	ctors []constructor
}

// ArgTypes lists the argument types accepted by the constructors, nil
// standing for the zero-argument constructor.
func (d *TypeDescriptor) ArgTypes() []reflect.Type {
	out := make([]reflect.Type, 0, len(d.ctors))
	for _, c := range d.ctors {
		out = append(out, c.argType)
	}
	return out
}

// Registry is a name to constructor table used in place of runtime class
// loading.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*TypeDescriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*TypeDescriptor)}
}

// Register adds a type under name. Every constructor must be a function
// taking zero or one argument and returning T or (T, error), with the same T
// for all of them.
func (r *Registry) Register(name string, ctors ...any) error {
	if !logname.Valid(name) {
		return fmt.Errorf("%q: %w", name, ErrInvalidTypeName)
	}
	if len(ctors) == 0 {
		return fmt.Errorf("%q: no constructors: %w", name, ErrInvalidConstructor)
	}

	desc := &TypeDescriptor{Name: name}
	for _, ctor := range ctors {
		c, out, err := inspectConstructor(ctor)
		if err != nil {
			return fmt.Errorf("%q: %w", name, err)
		}
		if desc.Type == nil {
			desc.Type = out
		} else if desc.Type != out {
			return fmt.Errorf("%q: constructors return both %v and %v: %w", name, desc.Type, out, ErrInvalidConstructor)
		}
		for _, existing := range desc.ctors {
			if existing.argType == c.argType {
				return fmt.Errorf("%q: duplicate constructor for %v: %w", name, c.argType, ErrInvalidConstructor)
			}
		}
		desc.ctors = append(desc.ctors, c)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[name]; exists {
		return fmt.Errorf("%q: %w", name, ErrAlreadyRegistered)
	}
	r.types[name] = desc
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(name string, ctors ...any) {
	if err := r.Register(name, ctors...); err != nil {
		panic(err)
	}
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

func (r *Registry) Resolve(name string) (*TypeDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrClassNotFound)
	}
	return desc, nil
}

func (r *Registry) IsAssignable(desc *TypeDescriptor, capability reflect.Type) bool {
	if desc == nil || desc.Type == nil || capability == nil {
		return false
	}
	return desc.Type.AssignableTo(capability)
}

// Construct runs the constructor of desc whose parameter type is exactly
// argType, or the zero-argument one when argType is nil.
func (r *Registry) Construct(desc *TypeDescriptor, argType reflect.Type, arg any) (any, error) {
	if desc == nil {
		return nil, ErrClassNotFound
	}

	var ctor *constructor
	for i := range desc.ctors {
		if desc.ctors[i].argType == argType {
			ctor = &desc.ctors[i]
			break
		}
	}
	if ctor == nil {
		if argType == nil {
			return nil, fmt.Errorf("%s has no zero-argument constructor: %w", desc.Name, ErrNoMatchingConstructor)
		}
		return nil, fmt.Errorf("%s has no constructor taking %v: %w", desc.Name, argType, ErrNoMatchingConstructor)
	}

	var in []reflect.Value
	if argType != nil {
		v, err := argValue(argType, arg)
		if err != nil {
			return nil, err
		}
		in = []reflect.Value{v}
	}

	out, err := call(ctor.fn, in)
	if err != nil {
		return nil, err
	}
	if ctor.withErr && !out[1].IsNil() {
		return nil, fmt.Errorf("%w: %w", ErrConstructionFailed, out[1].Interface().(error)) //nolint:forcetypeassert // checked at registration
	}
	if isNil(out[0]) {
		return nil, fmt.Errorf("%s constructor returned nil: %w", desc.Name, ErrConstructionFailed)
	}
	return out[0].Interface(), nil
}

func inspectConstructor(ctor any) (constructor, reflect.Type, error) {
	fn := reflect.ValueOf(ctor)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return constructor{}, nil, fmt.Errorf("%T is not a function: %w", ctor, ErrInvalidConstructor)
	}
	t := fn.Type()
	if t.IsVariadic() || t.NumIn() > 1 {
		return constructor{}, nil, fmt.Errorf("%v takes more than one argument: %w", t, ErrInvalidConstructor)
	}

	c := constructor{fn: fn}
	if t.NumIn() == 1 {
		c.argType = t.In(0)
	}
	switch t.NumOut() {
	case 1:
	case 2:
		if t.Out(1) != errorType {
			return constructor{}, nil, fmt.Errorf("%v: second result must be error: %w", t, ErrInvalidConstructor)
		}
		c.withErr = true
	default:
		return constructor{}, nil, fmt.Errorf("%v must return T or (T, error): %w", t, ErrInvalidConstructor)
	}
	return c, t.Out(0), nil
}

func argValue(argType reflect.Type, arg any) (reflect.Value, error) {
	if arg == nil {
		switch argType.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(argType), nil
		default:
			return reflect.Value{}, fmt.Errorf("nil argument for %v: %w", argType, ErrInvalidArgument)
		}
	}
	v := reflect.ValueOf(arg)
	if !v.Type().AssignableTo(argType) {
		return reflect.Value{}, fmt.Errorf("argument of type %v does not fit %v: %w", v.Type(), argType, ErrInvalidArgument)
	}
	return v, nil
}

func call(fn reflect.Value, in []reflect.Value) (out []reflect.Value, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: panic: %v", ErrConstructionFailed, rec)
		}
	}()
	return fn.Call(in), nil
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}
