// Package audience expands a declarative audience specification into
// concrete mandatory and optional attendee sets.
package audience

import (
	"context"
	"fmt"

	"github.com/akozyrev/TrainingEvents/internal/domain"
)

// GroupReader resolves a group id into its member user ids. Pagination is
// the provider's concern; members arrive as a flattened list.
type GroupReader interface {
	GetMembers(ctx context.Context, groupID string) ([]string, error)
}

type Resolver struct {
	groups GroupReader
}

func NewResolver(groups GroupReader) *Resolver {
	return &Resolver{groups: groups}
}

// Resolve partitions the selections into user/group mandatory/optional
// buckets, expands groups through the GroupReader, and applies the
// precedence rules:
//   - within a bucket pair, mandatory wins over optional;
//   - across buckets, an explicit single-user selection overrides a
//     group-derived membership for the same user id.
//
// An empty selection list yields empty sets. A group lookup failure aborts
// resolution; the group is never silently dropped.
func (r *Resolver) Resolve(ctx context.Context, selections []domain.Selection) (mandatory, optional []string, err error) {
	var userMandatory, userOptional, groupMandatory, groupOptional []string

	for _, sel := range selections {
		if !sel.IsGroup {
			if sel.IsMandatory {
				userMandatory = append(userMandatory, sel.ID)
			} else {
				userOptional = append(userOptional, sel.ID)
			}
			continue
		}

		members, err := r.groups.GetMembers(ctx, sel.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve group %s: %w", sel.ID, err)
		}
		if sel.IsMandatory {
			groupMandatory = append(groupMandatory, members...)
		} else {
			groupOptional = append(groupOptional, members...)
		}
	}

	userMandatory = dedupe(userMandatory)
	userOptional = dedupe(userOptional)
	groupMandatory = dedupe(groupMandatory)
	groupOptional = dedupe(groupOptional)

	// Mandatory membership wins within each bucket pair.
	groupOptional = subtract(groupOptional, groupMandatory)
	userOptional = subtract(userOptional, userMandatory)

	// An individual selection wins over a group-derived one.
	groupOptional = subtract(groupOptional, userMandatory)
	groupMandatory = subtract(groupMandatory, userOptional)

	mandatory = dedupe(append(groupMandatory, userMandatory...))
	optional = subtract(dedupe(append(groupOptional, userOptional...)), mandatory)

	return mandatory, optional, nil
}

// AutoRegister returns the mandatory users not already explicitly
// registered; those are the users pre-registered by the auto-register
// policy.
func AutoRegister(mandatory, registered []string) []string {
	return subtract(dedupe(mandatory), registered)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func subtract(ids, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, id := range remove {
		drop[id] = struct{}{}
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := drop[id]; ok {
			continue
		}
		out = append(out, id)
	}
	return out
}
