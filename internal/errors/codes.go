package errors

import (
	"errors"
	"slices"

	"github.com/vango-dev/elements/pkg/registry"
)

// docBase is the prefix of every error's documentation URL.
const docBase = "https://elements.vango.dev/docs/errors/"

// Template defines a registered error code.
type Template struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// codes maps error codes to their templates.
var codes = map[string]Template{
	// Definition errors (E001-E019)
	"E001": {
		Category:   CategoryDefinition,
		Message:    "Constructor is not a constructor",
		Detail:     "The value registered for a custom element must be constructible. Plain functions, arrow functions and objects cannot be used.",
		Suggestion: "Give the manifest entry a constructor, not a plain function.",
	},
	"E002": {
		Category:   CategoryDefinition,
		Message:    "Invalid custom element name",
		Detail:     "Custom element names start with a lowercase ASCII letter, contain a hyphen, contain no uppercase ASCII letters and are not one of the reserved SVG and MathML names.",
		Suggestion: "Add a prefix with a hyphen, for example x-widget.",
	},
	"E003": {
		Category:   CategoryDefinition,
		Message:    "Name already defined",
		Suggestion: "Each custom element name can be defined once per registry.",
	},
	"E004": {
		Category:   CategoryDefinition,
		Message:    "Constructor already in use",
		Detail:     "A constructor can only be registered under one name.",
		Suggestion: "Give each definition its own constructor key.",
	},
	"E005": {
		Category: CategoryDefinition,
		Message:  "Cannot extend a custom element",
		Detail:   "extends must name a built-in element. Customizing another custom element is not supported.",
	},
	"E006": {
		Category: CategoryDefinition,
		Message:  "Cannot extend an unknown element",
		Detail:   "extends must name a known HTML element. Obsolete elements such as blink or keygen map to HTMLUnknownElement and cannot be customized.",
	},
	"E007": {
		Category: CategoryDefinition,
		Message:  "Recursive definition",
		Detail:   "A getter on the constructor or its prototype tried to define another element while this one was being defined.",
	},
	"E008": {
		Category: CategoryDefinition,
		Message:  "Registry closed",
		Detail:   "The realm owning the registry has been torn down.",
	},

	// Coercion errors (E020-E039)
	"E020": {
		Category:   CategoryCoercion,
		Message:    "Lifecycle callback is not callable",
		Suggestion: "Lifecycle callbacks must be functions or left undefined.",
	},
	"E021": {
		Category: CategoryCoercion,
		Message:  "Value is not an object",
		Detail:   "The prototype must be an object, and observedAttributes and disabledFeatures must be iterable objects.",
	},
	"E022": {
		Category:   CategoryCoercion,
		Message:    "Value is not iterable",
		Suggestion: "Use a list of attribute or feature names.",
	},
	"E023": {
		Category: CategoryCoercion,
		Message:  "Value could not be converted to a string",
	},
	"E024": {
		Category: CategoryCoercion,
		Message:  "Exception thrown during definition",
		Detail:   "Reading a property of the constructor or its prototype raised an exception.",
	},

	// Manifest errors (E040-E059)
	"E040": {
		Category: CategoryManifest,
		Message:  "Invalid manifest YAML",
	},
	"E041": {
		Category:   CategoryManifest,
		Message:    "Definition entry is missing a name",
		Suggestion: "Every entry needs a name field.",
	},
	"E042": {
		Category: CategoryManifest,
		Message:  "Invalid definition entry",
	},
	"E043": {
		Category:   CategoryManifest,
		Message:    "Unknown lifecycle callback",
		Suggestion: "Use one of connectedCallback, disconnectedCallback, adoptedCallback, connectedMoveCallback or attributeChangedCallback.",
	},

	// Config errors (E060-E079)
	"E060": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration file",
		Suggestion: "Check elements.json for syntax errors.",
	},
	"E061": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	"E062": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Suggestion: "Run 'elements init' or pass --config.",
	},

	// Source errors (E080-E099)
	"E080": {
		Category: CategorySource,
		Message:  "Source not found",
	},
	"E081": {
		Category:   CategorySource,
		Message:    "S3 object could not be fetched",
		Suggestion: "Check the bucket, key, region and endpoint in elements.json.",
	},
	"E082": {
		Category:   CategorySource,
		Message:    "Unsupported source location",
		Suggestion: "Use a local path or an s3://bucket/key URL.",
	},
	"E083": {
		Category: CategorySource,
		Message:  "Document could not be parsed",
	},
	"E084": {
		Category: CategorySource,
		Message:  "Source too large",
	},

	// CLI errors (E100-E119)
	"E100": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
	},
}

var kindCodes = map[registry.ErrorKind]string{
	registry.KindNotAConstructor:         "E001",
	registry.KindInvalidName:             "E002",
	registry.KindNameAlreadyDefined:      "E003",
	registry.KindConstructorAlreadyInUse: "E004",
	registry.KindExtendsIsCustomName:     "E005",
	registry.KindExtendsUnknownTag:       "E006",
	registry.KindRecursiveDefinition:     "E007",
	registry.KindNotCallable:             "E020",
	registry.KindNotAnObject:             "E021",
	registry.KindNotIterable:             "E022",
	registry.KindStringifyFailed:         "E023",
	registry.KindThrown:                  "E024",
}

// FromDefinition converts an error returned by registry.Define.
func FromDefinition(err error) *Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, registry.ErrRegistryClosed) {
		return New("E008").Wrap(err)
	}
	var derr *registry.DefinitionError
	if !errors.As(err, &derr) {
		return FromError(err, "E024")
	}
	code, ok := kindCodes[derr.Kind]
	if !ok {
		code = "E024"
	}
	return New(code).Wrap(derr)
}

func docURL(code string) string {
	return docBase + code
}

// AllCodes returns all registered error codes, sorted.
func AllCodes() []string {
	out := make([]string, 0, len(codes))
	for code := range codes {
		out = append(out, code)
	}
	slices.Sort(out)
	return out
}

// Lookup returns the template for an error code.
func Lookup(code string) (Template, bool) {
	t, ok := codes[code]
	return t, ok
}

// Register adds an error template.
func Register(code string, template Template) {
	codes[code] = template
}
