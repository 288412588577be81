// Package hgid provides identifier validation and the deterministic hashing
// utilities used to compute a node's or graph's definition hash.
package hgid

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"regexp"
)

// End is the reserved sentinel a gate returns to terminate the path through
// it. It is never a valid identifier and the only process-wide constant the
// core relies on.
const End = "END"

var identifierRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reserved keywords that may not be used as identifiers. Go has no runtime
// notion of "reserved identifier" beyond its own keywords, so we reserve
// those plus the sentinel itself.
var reservedWords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
	End: true,
}

// ErrInvalidIdentifier is returned when a name fails the identifier rule.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// ErrHashUnavailable is returned when a node has no source and no explicit
// DefinitionKey, so no definition hash can be computed for it. Graphs
// containing such a node cannot be cached or persisted across processes.
var ErrHashUnavailable = errors.New("hash unavailable: node has no retrievable source or definition key")

// ValidateIdentifier checks a name against the identifier rule: non-empty,
// matching the host rule, not a reserved keyword, and not containing '.' or
// '/' (already excluded by the regex).
func ValidateIdentifier(name string) error {
	if name == "" || !identifierRE.MatchString(name) {
		return ErrInvalidIdentifier
	}
	if reservedWords[name] {
		return ErrInvalidIdentifier
	}
	return nil
}

// NormalizeToTuple accepts a single string or a slice of strings and returns
// an ordered slice, rejecting any empty string member.
func NormalizeToTuple(x any) ([]string, error) {
	switch v := x.(type) {
	case string:
		if v == "" {
			return nil, errors.New("normalize: empty string not allowed")
		}
		return []string{v}, nil
	case []string:
		out := make([]string, len(v))
		for i, s := range v {
			if s == "" {
				return nil, errors.New("normalize: empty string not allowed")
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, errors.New("normalize: expected string or []string")
	}
}

// HashPart is one canonicalized, type-tagged element fed into HashDefinition.
// Kind disambiguates otherwise-identical byte sequences (e.g. the string
// "12" versus the int 12) so concatenation of differently-typed parts can
// never collide.
type HashPart struct {
	Kind  byte
	Bytes []byte
}

const (
	kindString byte = 1
	kindInt    byte = 2
	kindBool   byte = 3
	kindBytes  byte = 4
)

// Str wraps a string as a HashPart.
func Str(s string) HashPart { return HashPart{Kind: kindString, Bytes: []byte(s)} }

// Int wraps an int as a HashPart (encoded big-endian, 8 bytes).
func Int(n int) HashPart {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(int64(n)))
	return HashPart{Kind: kindInt, Bytes: b}
}

// Bool wraps a bool as a HashPart.
func Bool(v bool) HashPart {
	b := byte(0)
	if v {
		b = 1
	}
	return HashPart{Kind: kindBool, Bytes: []byte{b}}
}

// Raw wraps an already-encoded byte slice as a HashPart, used for nested
// hashes (e.g. a graph hashing its nodes' definition hashes).
func Raw(b []byte) HashPart { return HashPart{Kind: kindBytes, Bytes: b} }

// HashDefinition computes a deterministic 64-hex-character SHA-256 digest
// over the ordered parts. Each part is written with a 1-byte type tag and a
// 4-byte big-endian length prefix before its bytes, which prevents
// concatenation collisions between differently-shaped inputs (e.g. ("ab",
// "c") vs ("a", "bc")).
func HashDefinition(parts ...HashPart) string {
	h := sha256.New()
	lenBuf := make([]byte, 4)
	for _, p := range parts {
		h.Write([]byte{p.Kind})
		binary.BigEndian.PutUint32(lenBuf, uint32(len(p.Bytes)))
		h.Write(lenBuf)
		h.Write(p.Bytes)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// DefinitionKeyOrHash resolves a node's identity for hashing/caching
// purposes: if the caller supplied an explicit DefinitionKey, that is
// hashed directly (as a single string part); otherwise the fallbackParts
// are hashed. Go cannot retrieve a function literal's source text, so
// callers that need a hash stable across processes and edits to the
// function body must supply an explicit key.
func DefinitionKeyOrHash(explicitKey string, fallbackParts ...HashPart) (string, error) {
	if explicitKey != "" {
		return HashDefinition(Str("definition_key"), Str(explicitKey)), nil
	}
	if len(fallbackParts) == 0 {
		return "", ErrHashUnavailable
	}
	return HashDefinition(fallbackParts...), nil
}
