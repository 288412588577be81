// Package hgtype implements the build-time type compatibility engine:
// deciding whether a value known to satisfy an output type may be fed
// to a parameter declared with an input type. It is consulted only when a
// graph is constructed with strict type checking enabled; no runtime value
// is ever inspected by this package.
package hgtype

import (
	"fmt"
	"reflect"
)

// Type is the sealed interface implemented by every type descriptor this
// engine understands. Descriptors are immutable and comparable by value
// where practical.
type Type interface {
	isHgType()
	String() string
}

// Any is compatible with everything, on either side of an edge.
type Any struct{}

func (Any) isHgType()      {}
func (Any) String() string { return "Any" }

// Named wraps a concrete Go reflect.Type (a struct, interface, or builtin).
type Named struct{ Reflect reflect.Type }

func (Named) isHgType()        {}
func (n Named) String() string { return n.Reflect.String() }

// Union models `A | B | ...`.
type Union struct{ Arms []Type }

func (Union) isHgType() {}
func (u Union) String() string {
	s := ""
	for i, a := range u.Arms {
		if i > 0 {
			s += "|"
		}
		s += a.String()
	}
	return s
}

// ListOf models a parameterized sequence, e.g. the implicit list[T] wrapping
// applied to map_over outputs.
type ListOf struct{ Elem Type }

func (ListOf) isHgType()        {}
func (l ListOf) String() string { return "[]" + l.Elem.String() }

// Literal models `Literal[...]`: the value must equal one of a fixed set.
type Literal struct{ Values []any }

func (Literal) isHgType() {}
func (l Literal) String() string {
	return fmt.Sprintf("Literal%v", l.Values)
}

// TypeVar models an unresolved type parameter. An incoming TypeVar
// matches anything; an outgoing TypeVar requires its bound
// concrete type (carried in Bound) to satisfy the other side.
type TypeVar struct {
	Name  string
	Bound Type // nil if unbound
}

func (TypeVar) isHgType()        {}
func (t TypeVar) String() string { return "TypeVar(" + t.Name + ")" }

// Protocol models a structural type: satisfied by anything declaring all of
// Methods. When both sides resolve to a Go reflect.Type backed by an actual
// interface, Compatible prefers reflect.Type.Implements over name matching.
type Protocol struct {
	Name    string
	Methods []string
}

func (Protocol) isHgType()        {}
func (p Protocol) String() string { return "Protocol(" + p.Name + ")" }

// Result is the outcome of a single Compatible check, carrying enough
// detail for a GraphConfigError's "how to fix" suffix.
type Result struct {
	OK     bool
	Reason string
}

func ok() Result  { return Result{OK: true} }
func bad(reason string) Result { return Result{OK: false, Reason: reason} }

// Compatible answers "may a value known to satisfy `out` be fed to a
// parameter declared as `in`?" by applying its rules in order, first match
// wins.
func Compatible(out, in Type) Result {
	// Rule 1: Any on either side.
	if _, isAny := out.(Any); isAny {
		return ok()
	}
	if _, isAny := in.(Any); isAny {
		return ok()
	}

	// Rule 10: incoming TypeVar matches anything; outgoing TypeVar requires
	// its bound type to satisfy the other side.
	if tv, isTV := in.(TypeVar); isTV {
		_ = tv
		return ok()
	}
	if tv, isTV := out.(TypeVar); isTV {
		if tv.Bound == nil {
			return bad("type variable " + tv.Name + " has no concrete binding")
		}
		return Compatible(tv.Bound, in)
	}

	// Rule 9: Literal input requires a literal output drawn from its set.
	if litIn, isLit := in.(Literal); isLit {
		litOut, isLitOut := out.(Literal)
		if !isLitOut {
			return bad("non-literal output cannot satisfy literal input " + litIn.String())
		}
		for _, v := range litOut.Values {
			if !literalMember(v, litIn.Values) {
				return bad(fmt.Sprintf("literal value %v not among %v", v, litIn.Values))
			}
		}
		return ok()
	}

	// Rule 3: input union, output must satisfy at least one arm.
	if u, isUnion := in.(Union); isUnion {
		var reasons []string
		for _, arm := range u.Arms {
			if r := Compatible(out, arm); r.OK {
				return ok()
			} else {
				reasons = append(reasons, r.Reason)
			}
		}
		return bad(fmt.Sprintf("output %s satisfies none of input union arms %v", out, reasons))
	}

	// Rule 4: output union, every arm must satisfy the input.
	if u, isUnion := out.(Union); isUnion {
		for _, arm := range u.Arms {
			if r := Compatible(arm, in); !r.OK {
				return bad("output union arm " + arm.String() + " does not satisfy input: " + r.Reason)
			}
		}
		return ok()
	}

	// Rule 11 (applied by the caller before reaching here, documented): a
	// GraphNode's map_over outputs are pre-wrapped in ListOf by the graph
	// validator, so by this point ListOf is an ordinary recursive case.
	if lo, isList := in.(ListOf); isList {
		loOut, isListOut := out.(ListOf)
		if !isListOut {
			return bad("output is not a list but input requires " + lo.String())
		}
		return Compatible(loOut.Elem, lo.Elem)
	}

	// Rule 8: structural/protocol typing.
	if p, isProto := in.(Protocol); isProto {
		return compatibleProtocol(out, p)
	}

	// Rule 2/5: identical or Go-subtype (interface-implements / identical
	// named type). bool is explicitly excluded from satisfying int-like
	// named types, to surface a common conversion bug.
	named1, ok1 := out.(Named)
	named2, ok2 := in.(Named)
	if ok1 && ok2 {
		return compatibleNamed(named1, named2)
	}

	return bad(fmt.Sprintf("%s is not compatible with %s", out, in))
}

func literalMember(v any, set []any) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

func compatibleNamed(out, in Named) Result {
	if out.Reflect == in.Reflect {
		return ok()
	}
	// bool is never considered a sub-type of int for this check (rule 5).
	if in.Reflect.Kind() == reflect.Int && out.Reflect.Kind() == reflect.Bool {
		return bad("bool is not a sub-type of int")
	}
	// Rule 6: parameterized generics, head compatible, recurse on params.
	// Go's reflect exposes this only for named structs with exported type
	// parameters captured via the concrete instantiation's fields; we treat
	// AssignableTo as the practical stand-in for "sub-type or identical"
	// since Go has no class hierarchy to walk.
	if out.Reflect.AssignableTo(in.Reflect) {
		return ok()
	}
	if in.Reflect.Kind() == reflect.Interface && out.Reflect.Implements(in.Reflect) {
		return ok()
	}
	return bad(out.Reflect.String() + " is not assignable to " + in.Reflect.String())
}

func compatibleProtocol(out Type, p Protocol) Result {
	named, isNamed := out.(Named)
	if !isNamed {
		return bad("protocol " + p.Name + " requires a concrete named type")
	}
	t := named.Reflect
	for _, m := range p.Methods {
		if _, found := t.MethodByName(m); !found {
			// Also check via pointer receiver, a common Go pattern.
			if t.Kind() != reflect.Ptr {
				pt := reflect.PointerTo(t)
				if _, found2 := pt.MethodByName(m); found2 {
					continue
				}
			}
			return bad(named.String() + " is missing method " + m + " required by protocol " + p.Name)
		}
	}
	return ok()
}
