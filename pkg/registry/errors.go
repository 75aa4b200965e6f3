package registry

import (
	"errors"
	"fmt"

	"github.com/vango-dev/elements/pkg/hostvalue"
)

// ErrorKind identifies why a definition failed.
type ErrorKind uint8

const (
	KindNotAConstructor ErrorKind = iota + 1
	KindInvalidName
	KindNameAlreadyDefined
	KindConstructorAlreadyInUse
	KindExtendsIsCustomName
	KindExtendsUnknownTag
	KindRecursiveDefinition
	KindNotCallable
	KindNotAnObject
	KindNotIterable
	KindStringifyFailed
	KindThrown // host code raised an exception
)

// Exception classes a host should raise for each kind.
const (
	ClassTypeError    = "TypeError"
	ClassSyntaxError  = "SyntaxError"
	ClassNotSupported = "NotSupportedError"
	ClassHost         = "" // rethrow the host's own exception
)

var kindInfo = map[ErrorKind]struct {
	name     string
	class    string
	sentinel error
}{
	KindNotAConstructor:         {"NotAConstructor", ClassTypeError, ErrNotAConstructor},
	KindInvalidName:             {"InvalidName", ClassSyntaxError, ErrInvalidName},
	KindNameAlreadyDefined:      {"NameAlreadyDefined", ClassNotSupported, ErrNameAlreadyDefined},
	KindConstructorAlreadyInUse: {"ConstructorAlreadyInUse", ClassNotSupported, ErrConstructorAlreadyInUse},
	KindExtendsIsCustomName:     {"ExtendsIsCustomName", ClassNotSupported, ErrExtendsIsCustomName},
	KindExtendsUnknownTag:       {"ExtendsUnknownTag", ClassNotSupported, ErrExtendsUnknownTag},
	KindRecursiveDefinition:     {"RecursiveDefinition", ClassNotSupported, ErrRecursiveDefinition},
	KindNotCallable:             {"NotCallable", ClassTypeError, hostvalue.ErrNotCallable},
	KindNotAnObject:             {"NotAnObject", ClassTypeError, hostvalue.ErrNotAnObject},
	KindNotIterable:             {"NotIterable", ClassTypeError, hostvalue.ErrNotIterable},
	KindStringifyFailed:         {"StringifyFailed", ClassHost, hostvalue.ErrStringifyFailed},
	KindThrown:                  {"Thrown", ClassHost, nil},
}

// String returns the kind name.
func (k ErrorKind) String() string {
	if info, ok := kindInfo[k]; ok {
		return info.name
	}
	return "Unknown"
}

// Class returns the exception class a host should raise.
func (k ErrorKind) Class() string {
	return kindInfo[k].class
}

// Sentinel errors, one per registry-specific kind. The coercion kinds use
// the hostvalue sentinels.
var (
	ErrNotAConstructor         = errors.New("not a constructor")
	ErrInvalidName             = errors.New("invalid custom element name")
	ErrNameAlreadyDefined      = errors.New("name already defined")
	ErrConstructorAlreadyInUse = errors.New("constructor already in use")
	ErrExtendsIsCustomName     = errors.New("extends is a custom element name")
	ErrExtendsUnknownTag       = errors.New("extends names an unknown element")
	ErrRecursiveDefinition     = errors.New("element definition is already running")

	// ErrRegistryClosed rejects pending when-defined futures at teardown.
	ErrRegistryClosed = errors.New("registry closed")
)

// DefinitionError is returned by Define and carried by rejected
// when-defined futures.
type DefinitionError struct {
	Kind    ErrorKind
	Name    string
	Message string
	Err     error // host error, when there is one
}

func (e *DefinitionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Name == "" {
		return msg
	}
	return fmt.Sprintf("define %q: %s", e.Name, msg)
}

// Unwrap returns the kind's sentinel and the wrapped cause.
func (e *DefinitionError) Unwrap() []error {
	var errs []error
	if s := kindInfo[e.Kind].sentinel; s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Class returns the exception class a host should raise for e.
func (e *DefinitionError) Class() string {
	return e.Kind.Class()
}

func newError(kind ErrorKind, name, format string, args ...any) *DefinitionError {
	return &DefinitionError{Kind: kind, Name: name, Message: fmt.Sprintf(format, args...)}
}

// extractionError classifies an error raised while reading the
// constructor's properties.
func extractionError(name, step string, err error) *DefinitionError {
	kind := KindThrown
	switch {
	case errors.Is(err, hostvalue.ErrNotCallable):
		kind = KindNotCallable
	case errors.Is(err, hostvalue.ErrNotAnObject):
		kind = KindNotAnObject
	case errors.Is(err, hostvalue.ErrNotIterable):
		kind = KindNotIterable
	case errors.Is(err, hostvalue.ErrStringifyFailed):
		kind = KindStringifyFailed
	}
	return &DefinitionError{Kind: kind, Name: name, Message: step, Err: err}
}
