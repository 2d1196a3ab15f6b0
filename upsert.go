package msgsize

import (
	"strings"

	"github.com/beevik/etree"
)

// EnsurePath walks the slash-separated element path starting at parent,
// descending into the first child element matching each segment and creating
// an empty element whenever no match exists. It returns the node at the end
// of the path.
//
// The tree is mutated only for segments that are missing; existing elements
// and their siblings are left untouched. When several children share a tag,
// the first one (in document order) is used.
//
// Empty segments produced by a leading, trailing or doubled slash are
// skipped, so "/a//b/" addresses the same node as "a/b".
func EnsurePath(parent *etree.Element, path string) *etree.Element {
	node := parent
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}

		next := node.SelectElement(seg)
		if next == nil {
			next = node.CreateElement(seg)
		}
		node = next
	}
	return node
}

// FindPath is the read-only counterpart of EnsurePath. It returns nil as soon
// as any segment of the path has no matching child element.
func FindPath(parent *etree.Element, path string) *etree.Element {
	node := parent
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}

		if node = node.SelectElement(seg); node == nil {
			return nil
		}
	}
	return node
}

// SetAttribute ensures the element path exists (see EnsurePath) and sets the
// named attribute on the final node, returning the value the attribute had
// before.
//
// nil return value means the attribute was not present. Setting an attribute
// to the value it already has is a no-op for the tree, and the returned
// previous value will equal the new one.
func SetAttribute(parent *etree.Element, path, attr, value string) *string {
	node := EnsurePath(parent, path)

	var prev *string
	if a := node.SelectAttr(attr); a != nil {
		v := a.Value
		prev = &v
	}

	node.CreateAttr(attr, value)
	return prev
}

// GetAttribute reads the named attribute at the element path without
// modifying the tree. nil means the path or the attribute does not exist.
func GetAttribute(parent *etree.Element, path, attr string) *string {
	node := FindPath(parent, path)
	if node == nil {
		return nil
	}
	a := node.SelectAttr(attr)
	if a == nil {
		return nil
	}
	v := a.Value
	return &v
}

// KibUnits converts a byte count to whole kilobyte (1024 byte) units,
// rounding upward. Values that are not multiples of 1024 are charged a full
// extra unit: KibUnits(1024) == 1, KibUnits(1025) == 2.
func KibUnits(n int64) int64 {
	return (n + 1023) / 1024
}
