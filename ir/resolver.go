// Copyright 2024-2026 The Tracemux Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ir

import (
	"fmt"
)

// linkedFieldClass is implemented by the four dependent field-class kinds
// (dynamic array, dynamic BLOB, option with selector, variant with
// selector) through their embedded fieldLink.
type linkedFieldClass interface {
	linkRecord() *fieldLink
}

func (l *fieldLink) linkRecord() *fieldLink { return l }

// expectedLinkTarget returns the abstract type the linked field of a
// dependent class must have.
func expectedLinkTarget(typ FieldClassType) FieldClassType {
	switch {
	case typ.Is(FieldClassTypeOptionWithBoolSelectorField):
		return FieldClassTypeBool
	case typ.Is(FieldClassTypeOptionWithSignedIntegerSelectorField),
		typ.Is(FieldClassTypeVariantWithSignedIntegerSelectorField):
		return FieldClassTypeSignedInteger
	case typ.Is(FieldClassTypeOptionWithUnsignedIntegerSelectorField),
		typ.Is(FieldClassTypeVariantWithUnsignedIntegerSelectorField):
		return FieldClassTypeUnsignedInteger
	default:
		// Dynamic array and BLOB lengths.
		return FieldClassTypeUnsignedInteger
	}
}

// scopeRoot is one visible scope and its root structure during a resolve
// pass.
type scopeRoot struct {
	scope Scope
	root  *StructureFieldClass
}

// scopeRoots returns, in visibility order, the scope roots reachable from
// scope: packet context first, event payload last. ec is nil when scope
// belongs to a stream class.
func scopeRoots(sc *StreamClass, ec *EventClass, scope Scope, installing *StructureFieldClass) []scopeRoot {
	roots := []scopeRoot{
		{ScopePacketContext, sc.packetContext},
		{ScopeEventCommonContext, sc.eventCommonContext},
	}
	if ec != nil {
		roots = append(roots,
			scopeRoot{ScopeEventSpecificContext, ec.specificContext},
			scopeRoot{ScopeEventPayload, ec.payload})
	}
	var out []scopeRoot
	for _, r := range roots {
		if r.scope > scope {
			break
		}
		if r.scope == scope {
			r.root = installing
		}
		out = append(out, r)
	}
	return out
}

// resolveScope runs the install-time link pass over the scope field class
// being installed.
//
// Under MIP 0 it computes the field path of every dependent field class of
// root by searching the visible scopes for the unique field whose class is
// the dependent's link target, then checks the visibility rule. Under
// MIP ≥ 1 it validates that every dependent's field location has a visible
// root scope and designates at least one field, each of the right kind;
// whether a designated field precedes the dependent in member order is not
// checked.
func resolveScope(sc *StreamClass, ec *EventClass, scope Scope, root *StructureFieldClass) error {
	if sc.traceClass.mip == 0 {
		return resolvePaths(sc, ec, scope, root)
	}
	return validateLocations(sc, ec, scope, root)
}

// resolvePaths is the MIP 0 pass.
//
// Field paths hop through structure members only, so both the dependent
// enumeration and the target search descend structures exclusively; a
// dependent or target nested under an array, option or variant node is
// not addressable by a field path.
func resolvePaths(sc *StreamClass, ec *EventClass, scope Scope, root *StructureFieldClass) error {
	type dependent struct {
		class FieldClass
		link  *fieldLink
		path  []uint64
	}
	var deps []dependent

	var walk func(fc *StructureFieldClass, at []uint64)
	walk = func(fc *StructureFieldClass, at []uint64) {
		for i := range fc.members {
			m := &fc.members[i]
			pos := append(append([]uint64(nil), at...), uint64(i))
			if lfc, ok := m.class.(linkedFieldClass); ok {
				if link := lfc.linkRecord(); link.targetClass != nil {
					deps = append(deps, dependent{class: m.class, link: link, path: pos})
				}
			}
			if sub, ok := m.class.(*StructureFieldClass); ok {
				walk(sub, pos)
			}
		}
	}
	walk(root, nil)

	for _, d := range deps {
		targetScope, targetPath, err := findTargetClass(sc, ec, scope, root, d.class, d.link.targetClass)
		if err != nil {
			return err
		}
		if targetScope == scope {
			if pathCompare(targetPath, d.path) >= 0 {
				return &ResolveError{
					Dependent: d.class,
					Detail: fmt.Sprintf("linked field (%s: %v) does not precede the dependent field (%s: %v)",
						targetScope, targetPath, scope, d.path),
				}
			}
		}
		d.link.path = &FieldPath{root: targetScope, indexes: targetPath}
	}
	return nil
}

// findTargetClass searches the scopes visible from scope for the unique
// field whose class is target.
func findTargetClass(sc *StreamClass, ec *EventClass, scope Scope, installing *StructureFieldClass, dep FieldClass, target FieldClass) (Scope, []uint64, error) {
	var (
		foundScope Scope
		foundPath  []uint64
		found      int
	)

	var search func(fc *StructureFieldClass, at []uint64, in Scope)
	search = func(fc *StructureFieldClass, at []uint64, in Scope) {
		for i := range fc.members {
			m := &fc.members[i]
			pos := append(append([]uint64(nil), at...), uint64(i))
			if m.class == target {
				found++
				foundScope, foundPath = in, pos
			}
			if sub, ok := m.class.(*StructureFieldClass); ok {
				search(sub, pos, in)
			}
		}
	}
	for _, r := range scopeRoots(sc, ec, scope, installing) {
		if r.root != nil {
			search(r.root, nil, r.scope)
		}
	}

	switch found {
	case 0:
		return 0, nil, &ResolveError{
			Dependent: dep,
			Detail:    fmt.Sprintf("no visible field has the linked %s field class", target.Type()),
		}
	case 1:
		if !target.Type().Is(expectedLinkTarget(dep.base().typ)) {
			return 0, nil, &ResolveError{
				Dependent: dep,
				Detail: fmt.Sprintf("linked field class is a %s field class, expecting %s",
					target.Type(), expectedLinkTarget(dep.base().typ)),
			}
		}
		return foundScope, foundPath, nil
	default:
		return 0, nil, &ResolveError{
			Dependent: dep,
			Detail:    fmt.Sprintf("%d visible fields have the linked %s field class", found, target.Type()),
		}
	}
}

// pathCompare orders two structure index paths lexicographically, a
// shorter path ordering before its extensions.
func pathCompare(a, b []uint64) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// validateLocations is the MIP ≥ 1 pass: every dependent field class of
// root must carry a location whose root scope is visible and which
// designates at least one field; every designated field must be of the
// expected kind. Locations may descend through structure and variant
// nodes. Member order is not checked: a location may designate a field
// which follows the dependent.
func validateLocations(sc *StreamClass, ec *EventClass, scope Scope, root *StructureFieldClass) error {
	var deps []struct {
		class FieldClass
		link  *fieldLink
	}

	var walk func(fc FieldClass)
	walk = func(fc FieldClass) {
		if lfc, ok := fc.(linkedFieldClass); ok {
			if link := lfc.linkRecord(); link.location != nil {
				deps = append(deps, struct {
					class FieldClass
					link  *fieldLink
				}{fc, link})
			}
		}
		for _, child := range fc.base().children {
			walk(child)
		}
	}
	walk(root)

	for _, d := range deps {
		loc := d.link.location
		if loc.root > scope {
			return &ResolveError{
				Dependent: d.class,
				Detail: fmt.Sprintf("field location root %s is not visible from %s",
					loc.root, scope),
			}
		}
		var start *StructureFieldClass
		for _, r := range scopeRoots(sc, ec, scope, root) {
			if r.scope == loc.root {
				start = r.root
			}
		}
		if start == nil {
			return &ResolveError{
				Dependent: d.class,
				Detail:    fmt.Sprintf("scope %s has no field class", loc.root),
			}
		}
		matches := locateAll(start, loc.items)
		if len(matches) == 0 {
			return &ResolveError{
				Dependent: d.class,
				Detail:    fmt.Sprintf("field location %s designates no field", loc),
			}
		}
		want := expectedLinkTarget(d.class.base().typ)
		for _, m := range matches {
			if !m.Type().Is(want) {
				return &ResolveError{
					Dependent: d.class,
					Detail: fmt.Sprintf("field location %s designates a %s field class, expecting %s",
						loc, m.Type(), want),
				}
			}
		}
	}
	return nil
}

// locateAll returns every field class designated by following items from
// fc, descending through structure members by name and transparently
// through variant options.
func locateAll(fc FieldClass, items []string) []FieldClass {
	if len(items) == 0 {
		return []FieldClass{fc}
	}
	var out []FieldClass
	switch fc := fc.(type) {
	case *StructureFieldClass:
		if m := fc.MemberByName(items[0]); m != nil {
			out = append(out, locateAll(m.FieldClass(), items[1:])...)
		}
	case *VariantWithoutSelectorFieldClass:
		for i := range fc.options {
			out = append(out, locateAll(fc.options[i].class, items)...)
		}
	case *VariantWithUnsignedIntegerSelectorFieldClass:
		for i := range fc.options {
			out = append(out, locateAll(fc.options[i].class, items)...)
		}
	case *VariantWithSignedIntegerSelectorFieldClass:
		for i := range fc.options {
			out = append(out, locateAll(fc.options[i].class, items)...)
		}
	}
	return out
}
