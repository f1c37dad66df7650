// Package policy holds the access rules for tasks and user records. Every
// function is pure: callers load the resource first, so a missing resource
// is reported as not found before any of these are consulted.
package policy

import (
	"github.com/google/uuid"

	"taskmaster/internal/model"
)

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID   uuid.UUID
	Role model.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

func ownerOrAdmin(actor Actor, ownerID uuid.UUID) bool {
	return actor.IsAdmin() || actor.ID == ownerID
}

func CanReadTask(actor Actor, ownerID uuid.UUID) bool {
	return ownerOrAdmin(actor, ownerID)
}

func CanUpdateTask(actor Actor, ownerID uuid.UUID) bool {
	return ownerOrAdmin(actor, ownerID)
}

func CanDeleteTask(actor Actor, ownerID uuid.UUID) bool {
	return ownerOrAdmin(actor, ownerID)
}

// CanAssignTask is checked against the task's current owner, never the
// prospective one.
func CanAssignTask(actor Actor, currentOwnerID uuid.UUID) bool {
	return ownerOrAdmin(actor, currentOwnerID)
}

// CanListAll reports whether the actor sees every record in a listing.
func CanListAll(actor Actor) bool {
	return actor.IsAdmin()
}

// ListScope returns the owner filter to apply to a listing, or nil when
// the actor may see everything.
func ListScope(actor Actor) *uuid.UUID {
	if CanListAll(actor) {
		return nil
	}
	id := actor.ID
	return &id
}

func CanReadUser(actor Actor, userID uuid.UUID) bool {
	return ownerOrAdmin(actor, userID)
}

func CanUpdateUser(actor Actor, userID uuid.UUID) bool {
	return ownerOrAdmin(actor, userID)
}

// CanSetRole is Admin-only. Users cannot change their own role.
func CanSetRole(actor Actor) bool {
	return actor.IsAdmin()
}

func CanDeleteUser(actor Actor) bool {
	return actor.IsAdmin()
}
