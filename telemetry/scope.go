// Copyright (c) Microsoft. All rights reserved.

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel/baggage"

	"github.com/contoso/agent-observability/identity"
)

// ErrContext marks failures of the ambient-context scope discipline:
// detaching a scope twice, detaching a scope that was never attached, or
// failing to encode identity values as baggage.
var ErrContext = errors.New("telemetry: context scope")

// rolesSeparator joins the role set into one baggage value. The serialized
// form must be identical on every emission, so roles are sorted first.
const rolesSeparator = ","

// openScopes counts attach calls minus detach calls across the process.
var openScopes atomic.Int64

// Scope is the token returned by Attach. It must be released exactly once,
// normally with a deferred Detach, on success and failure paths alike.
type Scope struct {
	released atomic.Bool
}

// Attach derives a context that carries the request's identity dimensions as
// baggage. Everything started from the returned context, including work in
// downstream processes reached over instrumented transports, sees the same
// dimensions; sibling contexts attached separately are unaffected.
//
// Existing baggage entries on ctx are kept; the recognized identity keys are
// overridden. Empty dimensions are skipped rather than written as empty
// values.
func Attach(ctx context.Context, rc identity.RequestContext) (context.Context, *Scope, error) {
	bag := baggage.FromContext(ctx)

	var err error
	for _, entry := range []struct{ key, value string }{
		{KeyUserID, rc.UserID},
		{KeySessionID, rc.SessionID},
		{KeyDepartment, rc.Department},
		{KeyUserRoles, FormatRoles(rc)},
	} {
		if entry.value == "" {
			continue
		}
		bag, err = setMember(bag, entry.key, entry.value)
		if err != nil {
			return ctx, nil, err
		}
	}

	openScopes.Add(1)
	return baggage.ContextWithBaggage(ctx, bag), &Scope{}, nil
}

func setMember(bag baggage.Baggage, key, value string) (baggage.Baggage, error) {
	member, err := baggage.NewMember(key, value)
	if err != nil {
		return bag, fmt.Errorf("%w: encoding %s: %v", ErrContext, key, err)
	}
	bag, err = bag.SetMember(member)
	if err != nil {
		return bag, fmt.Errorf("%w: setting %s: %v", ErrContext, key, err)
	}
	return bag, nil
}

// Detach releases the scope. The second and any later call on the same scope
// reports ErrContext; a balanced program never sees that error.
func (s *Scope) Detach() error {
	if s == nil {
		return fmt.Errorf("%w: detach without attach", ErrContext)
	}
	if !s.released.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: scope already detached", ErrContext)
	}
	openScopes.Add(-1)
	return nil
}

// OpenScopes reports attach calls minus detach calls process-wide. A run that
// maintained the scope discipline leaves this at zero.
func OpenScopes() int64 {
	return openScopes.Load()
}

// BaggageValue reads one baggage value from the ambient context. The second
// return is false when the key is not set.
func BaggageValue(ctx context.Context, key string) (string, bool) {
	member := baggage.FromContext(ctx).Member(key)
	if member.Key() == "" {
		return "", false
	}
	return member.Value(), true
}

// FormatRoles serializes the role set the one way it ever appears in
// telemetry: sorted and comma-joined.
func FormatRoles(rc identity.RequestContext) string {
	return strings.Join(rc.SortedRoles(), rolesSeparator)
}
