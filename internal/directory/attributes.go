package directory

import (
	"encoding/base64"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// Kind tags the shape of an attribute value.
type Kind uint8

const (
	// KindScalar is a single-valued attribute.
	KindScalar Kind = iota
	// KindList is a multi-valued attribute.
	KindList
	// KindBinary is a photo or certificate attribute kept as raw bytes.
	KindBinary
)

// binaryAttributes are stored as raw bytes. Keys are lower case.
var binaryAttributes = map[string]struct{}{ //nolint:gochecknoglobals
	"thumbnailphoto":  {},
	"jpegphoto":       {},
	"photo":           {},
	"usercertificate": {},
}

// Value is a flattened attribute value.
type Value struct {
	Kind   Kind
	Scalar string
	List   []string
	Binary []byte
}

// First returns the scalar or the first list element.
func (v Value) First() string {
	switch v.Kind {
	case KindScalar:
		return v.Scalar
	case KindList:
		if len(v.List) > 0 {
			return v.List[0]
		}
	case KindBinary:
	}

	return ""
}

// Strings coerces the value into a list.
func (v Value) Strings() []string {
	switch v.Kind {
	case KindScalar:
		return []string{v.Scalar}
	case KindList:
		return v.List
	case KindBinary:
	}

	return nil
}

// Entry is a flattened directory entry with case-insensitive attribute names.
type Entry struct {
	DN    string
	attrs map[string]Value
}

// NewEntry returns an empty entry for dn.
func NewEntry(dn string) Entry {
	return Entry{DN: dn, attrs: make(map[string]Value)}
}

// Set stores v under name.
func (e Entry) Set(name string, v Value) {
	e.attrs[strings.ToLower(name)] = v
}

// Get returns the value stored under name.
func (e Entry) Get(name string) (Value, bool) {
	v, ok := e.attrs[strings.ToLower(name)]

	return v, ok
}

// First returns the first string value of name or "".
func (e Entry) First(name string) string {
	v, ok := e.Get(name)
	if !ok {
		return ""
	}

	return v.First()
}

// Binary returns the raw bytes of a binary attribute.
func (e Entry) Binary(name string) []byte {
	v, ok := e.Get(name)
	if !ok || v.Kind != KindBinary {
		return nil
	}

	return v.Binary
}

// Flatten converts a raw search entry into an Entry.
func Flatten(raw *ldap.Entry) Entry {
	e := NewEntry(raw.DN)

	for _, attr := range raw.Attributes {
		if _, ok := binaryAttributes[strings.ToLower(attr.Name)]; ok {
			if b := binaryValue(attr); len(b) > 0 {
				e.Set(attr.Name, Value{Kind: KindBinary, Binary: b})
			}

			continue
		}

		if len(attr.Values) == 1 {
			e.Set(attr.Name, Value{Kind: KindScalar, Scalar: attr.Values[0]})

			continue
		}

		list := make([]string, len(attr.Values))
		copy(list, attr.Values)
		e.Set(attr.Name, Value{Kind: KindList, List: list})
	}

	return e
}

// FlattenAll flattens every entry of a search result.
func FlattenAll(raw []*ldap.Entry) []Entry {
	out := make([]Entry, 0, len(raw))
	for _, r := range raw {
		out = append(out, Flatten(r))
	}

	return out
}

// binaryValue prefers the raw bytes and falls back to a base64 string value.
func binaryValue(attr *ldap.EntryAttribute) []byte {
	if len(attr.ByteValues) > 0 && len(attr.ByteValues[0]) > 0 {
		b := make([]byte, len(attr.ByteValues[0]))
		copy(b, attr.ByteValues[0])

		return b
	}

	if len(attr.Values) > 0 {
		if b, err := base64.StdEncoding.DecodeString(attr.Values[0]); err == nil {
			return b
		}
	}

	return nil
}
