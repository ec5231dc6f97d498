// Package access holds the acting principal of a request and the permission
// guard composed in front of protected operations.
package access

import (
	"errors"
	"fmt"
	"slices"
)

// Permission is a named capability granted to a user.
type Permission string

const (
	ManageCatalog Permission = "can_manage_catalog"
	MarkReturned  Permission = "can_mark_returned"
	MarkLate      Permission = "can_mark_late"
	Renew         Permission = "can_renew"
)

// Known lists every permission the service understands.
var Known = []Permission{ManageCatalog, MarkReturned, MarkLate, Renew}

var (
	// ErrAccessDenied is returned when the actor lacks a required permission.
	ErrAccessDenied = errors.New("access denied")
	// ErrLoginRequired is returned for anonymous actors. It wraps ErrAccessDenied.
	ErrLoginRequired = fmt.Errorf("%w: login required", ErrAccessDenied)
)

// Actor is the principal performing an operation. The zero value is anonymous.
type Actor struct {
	UserID      string
	Permissions []Permission
}

// Anonymous returns an unauthenticated actor.
func Anonymous() Actor {
	return Actor{}
}

// NewActor builds an authenticated actor from raw permission names.
// Unknown names are dropped.
func NewActor(userID string, perms []string) Actor {
	return Actor{UserID: userID, Permissions: ParsePermissions(perms)}
}

func (a Actor) IsAuthenticated() bool {
	return a.UserID != ""
}

// Has reports whether the actor holds p.
func (a Actor) Has(p Permission) bool {
	return a.IsAuthenticated() && slices.Contains(a.Permissions, p)
}

// RequireLogin fails for anonymous actors.
func RequireLogin(a Actor) error {
	if !a.IsAuthenticated() {
		return ErrLoginRequired
	}
	return nil
}

// Authorize fails unless the actor is authenticated and holds p.
func Authorize(a Actor, p Permission) error {
	if err := RequireLogin(a); err != nil {
		return err
	}
	if !a.Has(p) {
		return fmt.Errorf("%w: missing %s", ErrAccessDenied, p)
	}
	return nil
}

// ParsePermissions converts raw names into known permissions, skipping unknown ones.
func ParsePermissions(names []string) []Permission {
	out := make([]Permission, 0, len(names))
	for _, n := range names {
		p := Permission(n)
		if slices.Contains(Known, p) && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

// Strings returns the permission names, for token claims and storage.
func Strings(perms []Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}
