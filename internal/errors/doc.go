// Package errors provides coded, actionable error messages for the elements
// CLI.
//
// Library packages return plain Go errors (registry.DefinitionError,
// manifest.Error, ...). The CLI converts them into *Error values that carry
// a stable code, the manifest location that caused them and a hint.
//
// # Error Categories
//
//   - definition: a Define call was rejected
//   - coercion: a constructor property could not be converted
//   - manifest: the definition manifest is malformed
//   - config: elements.json is invalid
//   - source: a document or manifest could not be loaded
//   - cli: bad command usage
//
// # Usage
//
//	err := errors.FromDefinition(derr).
//	    WithSource("elements.yaml", src, 12, 5)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E003: Name already defined
//	//
//	//   elements.yaml:12:5
//	//
//	//     11 │ - name: x-counter
//	//   → 12 │   name: x-counter
//	//        │   ^
//	//
//	//   Hint: Each custom element name can be defined once per registry.
//	//
//	//   Learn more: https://elements.vango.dev/docs/errors/E003
package errors
