package hgtype

import (
	"reflect"
	"testing"
)

type stringerThing struct{}

func (stringerThing) String() string { return "x" }

type reader interface {
	Read() string
}

func namedOf(v any) Named { return Named{Reflect: reflect.TypeOf(v)} }

func TestCompatibleAny(t *testing.T) {
	if !Compatible(Any{}, namedOf(0)).OK {
		t.Error("Any output should satisfy any input")
	}
	if !Compatible(namedOf("x"), Any{}).OK {
		t.Error("any output should satisfy Any input")
	}
}

func TestCompatibleIdenticalNamed(t *testing.T) {
	if !Compatible(namedOf(1), namedOf(2)).OK {
		t.Error("identical int types should be compatible")
	}
	if Compatible(namedOf("a"), namedOf(1)).OK {
		t.Error("string should not be compatible with int")
	}
}

func TestCompatibleBoolExcludedFromInt(t *testing.T) {
	r := Compatible(namedOf(true), namedOf(1))
	if r.OK {
		t.Error("bool must not satisfy an int input")
	}
}

func TestCompatibleUnionInput(t *testing.T) {
	in := Union{Arms: []Type{namedOf(1), namedOf("s")}}
	if !Compatible(namedOf(1), in).OK {
		t.Error("int output should satisfy int|string input")
	}
	if !Compatible(namedOf("s"), in).OK {
		t.Error("string output should satisfy int|string input")
	}
	if Compatible(namedOf(true), in).OK {
		t.Error("bool output should satisfy neither arm of int|string")
	}
}

func TestCompatibleUnionOutput(t *testing.T) {
	out := Union{Arms: []Type{namedOf(1), namedOf(2)}}
	if !Compatible(out, namedOf(3)).OK {
		t.Error("every arm of an all-int union should satisfy an int input")
	}

	mixed := Union{Arms: []Type{namedOf(1), namedOf("s")}}
	if Compatible(mixed, namedOf(3)).OK {
		t.Error("a union with a non-int arm should not satisfy an int input")
	}
}

func TestCompatibleListOf(t *testing.T) {
	in := ListOf{Elem: namedOf(1)}
	out := ListOf{Elem: namedOf(2)}
	if !Compatible(out, in).OK {
		t.Error("[]int should satisfy []int")
	}

	notList := namedOf(1)
	if Compatible(notList, in).OK {
		t.Error("a bare int should not satisfy a []int input")
	}

	mismatched := ListOf{Elem: namedOf("s")}
	if Compatible(mismatched, in).OK {
		t.Error("[]string should not satisfy []int")
	}
}

func TestCompatibleTypeVar(t *testing.T) {
	t.Run("incoming typevar matches anything", func(t *testing.T) {
		if !Compatible(namedOf(1), TypeVar{Name: "T"}).OK {
			t.Error("an unbound input TypeVar should accept any output")
		}
	})

	t.Run("outgoing typevar requires its bound type", func(t *testing.T) {
		bound := TypeVar{Name: "T", Bound: namedOf(1)}
		if !Compatible(bound, namedOf(2)).OK {
			t.Error("a TypeVar bound to int should satisfy an int input")
		}
		if Compatible(bound, namedOf("s")).OK {
			t.Error("a TypeVar bound to int should not satisfy a string input")
		}
	})

	t.Run("unbound outgoing typevar fails", func(t *testing.T) {
		if Compatible(TypeVar{Name: "T"}, namedOf(1)).OK {
			t.Error("an unbound output TypeVar cannot satisfy anything")
		}
	})
}

func TestCompatibleProtocol(t *testing.T) {
	proto := Protocol{Name: "Stringer", Methods: []string{"String"}}
	if !Compatible(namedOf(stringerThing{}), proto).OK {
		t.Error("a type implementing String() should satisfy the Stringer protocol")
	}
	if Compatible(namedOf(1), proto).OK {
		t.Error("int has no String() method and should fail the protocol check")
	}
}

func TestCompatibleLiteral(t *testing.T) {
	in := Literal{Values: []any{"a", "b"}}
	subset := Literal{Values: []any{"a"}}
	if !Compatible(subset, in).OK {
		t.Error("a literal subset should satisfy a literal superset input")
	}

	disjoint := Literal{Values: []any{"z"}}
	if Compatible(disjoint, in).OK {
		t.Error("a disjoint literal set should not satisfy the input")
	}

	if Compatible(namedOf("a"), in).OK {
		t.Error("a non-literal output should not satisfy a literal input")
	}
}

func TestCompatibleGoInterfaceSubtype(t *testing.T) {
	var r reader
	in := Named{Reflect: reflect.TypeOf(&r).Elem()}
	out := namedOf(1)
	if Compatible(out, in).OK {
		t.Error("int does not implement reader and should fail")
	}
}
