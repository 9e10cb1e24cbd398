package rbac

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrMalformedPermission = errors.New("rbac: malformed permission name")
	ErrUnknownPermission   = errors.New("rbac: permission not in catalog")
)

type Action string

type Resource string

// Permission is an action on a resource. Its name is "<action>_<resource>",
// for example view_users or force_delete_roles. Resources are single words
// so the name splits on its last underscore.
type Permission struct {
	Action   Action
	Resource Resource
}

func (p Permission) String() string {
	return string(p.Action) + "_" + string(p.Resource)
}

// Parse splits name into its action and resource. It does not consult the
// catalog; use Catalog.Lookup for that.
func Parse(name string) (Permission, error) {
	i := strings.LastIndexByte(name, '_')
	if i <= 0 || i == len(name)-1 {
		return Permission{}, fmt.Errorf("%w: %q", ErrMalformedPermission, name)
	}
	return Permission{Action: Action(name[:i]), Resource: Resource(name[i+1:])}, nil
}

// Set is a read-only set of permissions. Callers must not modify a Set
// returned by the resolver since caches share it.
type Set map[Permission]struct{}

// NewSet builds a set from permissions.
func NewSet(perms ...Permission) Set {
	s := make(Set, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

func (s Set) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// HasAny is false for an empty query.
func (s Set) HasAny(perms ...Permission) bool {
	for _, p := range perms {
		if s.Has(p) {
			return true
		}
	}
	return false
}

// HasAll is true for an empty query.
func (s Set) HasAll(perms ...Permission) bool {
	for _, p := range perms {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

// Names returns the sorted permission names.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for p := range s {
		names = append(names, p.String())
	}
	sort.Strings(names)
	return names
}
