// Copyright (c) Microsoft. All rights reserved.

// Package identity supplies the per-request identity dimensions the demo
// propagates through traces, metrics, and logs: who is asking (user id,
// roles, department) and which session the request belongs to.
//
// The user directory is a fixed mock roster so repeated demo runs produce
// comparable telemetry across users and departments. Session ids are minted
// fresh for every run.
package identity

import (
	"encoding/hex"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// VIPRole is the role name that marks a user as VIP in metrics and spans.
const VIPRole = "vip"

// RequestContext carries the identity and session dimensions for one logical
// request. It is created once per scenario run and never mutated afterwards;
// downstream code reads it from ambient baggage rather than receiving it as
// an argument.
type RequestContext struct {
	UserID     string
	Roles      []string
	Department string
	SessionID  string
}

// IsVIP reports whether the vip role is present.
func (rc RequestContext) IsVIP() bool {
	for _, role := range rc.Roles {
		if strings.EqualFold(role, VIPRole) {
			return true
		}
	}
	return false
}

// SortedRoles returns a copy of the roles in lexical order. Serialization of
// roles into telemetry attributes must be stable across calls, so callers
// always go through this accessor rather than reading Roles directly.
func (rc RequestContext) SortedRoles() []string {
	out := slices.Clone(rc.Roles)
	slices.Sort(out)
	return out
}

// User is one directory entry. Sessions are not part of the entry; they are
// minted per run via NewRequestContext.
type User struct {
	ID         string
	Roles      []string
	Department string
}

// Directory is the mock user store backing the demo scenarios.
type Directory struct {
	users []User
}

// NewDirectory returns the demo roster.
func NewDirectory() *Directory {
	return &Directory{users: []User{
		{ID: "user_001", Roles: []string{VIPRole}, Department: "Engineering"},
		{ID: "user_002", Roles: []string{VIPRole}, Department: "Marketing"},
		{ID: "user_003", Roles: nil, Department: "Engineering"},
	}}
}

// Len returns the roster size.
func (d *Directory) Len() int { return len(d.users) }

// At returns the user at position i, wrapping around the roster so callers
// can cycle through users with a plain counter.
func (d *Directory) At(i int) User {
	if len(d.users) == 0 {
		return User{}
	}
	if i < 0 {
		i = -i
	}
	return d.users[i%len(d.users)]
}

// Lookup finds a user by id.
func (d *Directory) Lookup(id string) (User, bool) {
	for _, u := range d.users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// NewRequestContext mints the per-run context for a user: the directory
// entry's identity dimensions plus a fresh session id.
func NewRequestContext(u User) RequestContext {
	return RequestContext{
		UserID:     u.ID,
		Roles:      slices.Clone(u.Roles),
		Department: u.Department,
		SessionID:  NewSessionID(),
	}
}

// NewSessionID returns a fresh session identifier of the form
// "session_<8 hex chars>".
func NewSessionID() string {
	id := uuid.New()
	return "session_" + hex.EncodeToString(id[:4])
}
