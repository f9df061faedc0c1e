// Package schema validates the data carried by UI events before it reaches a handler.
//
// It defines a simple type system with built-in types (string, int, float, bool, any)
// and support for slices, objects and custom validators. Args lists the expected type of
// each positional argument of an event:
//
//	args := schema.Args{
//	    schema.Int(),
//	    schema.Object(schema.Schema{"value": schema.String()}),
//	}
//
//	if err := schema.ValidateArgs(args, []any{3.0, map[string]any{"value": "x"}}); err != nil {
//	    // Handle validation errors
//	}
//
// Args can also be parsed from type names, which is how they travel on the wire:
//
//	args, err := schema.ParseArgs("int", "[string]")
//
// Custom validators can be registered for domain-specific validation:
//
//	positive := schema.Custom("positive", func(v any) error {
//	    f, ok := v.(float64)
//	    if !ok || f <= 0 {
//	        return fmt.Errorf("must be a positive number")
//	    }
//	    return nil
//	})
package schema
