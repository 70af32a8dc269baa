// Package loader builds configured components from type names.
//
// Go has no runtime class loading, so types are registered up front in a
// Registry together with their constructors. Instantiate then resolves a
// name, checks the type against a required capability (usually an interface
// type) and only then calls a constructor:
//
//	reg := loader.NewRegistry()
//	reg.MustRegister("filter.ThresholdFilter", component.NewThresholdFilter)
//
//	f, err := loader.InstantiateAs[component.Filter]("filter.ThresholdFilter", reg,
//		reflect.TypeFor[string](), "WARN")
//
// A type that does not satisfy the capability fails with
// *IncompatibleTypeError; anything else that goes wrong is a
// *DynamicLoadError.
package loader
