package audience

import (
	"context"
	"errors"
	"testing"

	"github.com/akozyrev/TrainingEvents/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGroups struct {
	members map[string][]string
	err     error
}

func (f *fakeGroups) GetMembers(_ context.Context, groupID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.members[groupID], nil
}

func user(id string, mandatory bool) domain.Selection {
	return domain.Selection{ID: id, IsMandatory: mandatory}
}

func group(id string, mandatory bool) domain.Selection {
	return domain.Selection{ID: id, IsGroup: true, IsMandatory: mandatory}
}

func TestResolve_EmptySelection(t *testing.T) {
	r := NewResolver(&fakeGroups{})

	mandatory, optional, err := r.Resolve(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, mandatory)
	assert.Empty(t, optional)
}

func TestResolve_UsersOnly(t *testing.T) {
	r := NewResolver(&fakeGroups{})

	mandatory, optional, err := r.Resolve(context.Background(), []domain.Selection{
		user("a", true),
		user("b", false),
		user("a", true), // duplicate
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, mandatory)
	assert.Equal(t, []string{"b"}, optional)
}

func TestResolve_GroupExpansion(t *testing.T) {
	groups := &fakeGroups{members: map[string][]string{
		"g1": {"a", "b"},
		"g2": {"c"},
	}}
	r := NewResolver(groups)

	mandatory, optional, err := r.Resolve(context.Background(), []domain.Selection{
		group("g1", true),
		group("g2", false),
	})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, mandatory)
	assert.Equal(t, []string{"c"}, optional)
}

func TestResolve_MandatoryOverridesOptionalWithinGroups(t *testing.T) {
	groups := &fakeGroups{members: map[string][]string{
		"g1": {"a", "b"},
		"g2": {"b", "c"},
	}}
	r := NewResolver(groups)

	mandatory, optional, err := r.Resolve(context.Background(), []domain.Selection{
		group("g1", true),
		group("g2", false),
	})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, mandatory)
	assert.Equal(t, []string{"c"}, optional)
}

// Group G = {A, B} selected optional, user A selected mandatory:
// the individual selection wins, so A is mandatory and only B stays optional.
func TestResolve_ExplicitUserOverridesGroupMembership(t *testing.T) {
	groups := &fakeGroups{members: map[string][]string{"g": {"a", "b"}}}
	r := NewResolver(groups)

	mandatory, optional, err := r.Resolve(context.Background(), []domain.Selection{
		group("g", false),
		user("a", true),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, mandatory)
	assert.Equal(t, []string{"b"}, optional)
}

func TestResolve_ExplicitOptionalUserDropsGroupMandatory(t *testing.T) {
	groups := &fakeGroups{members: map[string][]string{"g": {"a", "b"}}}
	r := NewResolver(groups)

	mandatory, optional, err := r.Resolve(context.Background(), []domain.Selection{
		group("g", true),
		user("a", false),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, mandatory)
	assert.Equal(t, []string{"a"}, optional)
}

func TestResolve_EmptyGroupContributesNothing(t *testing.T) {
	groups := &fakeGroups{members: map[string][]string{"g": nil}}
	r := NewResolver(groups)

	mandatory, optional, err := r.Resolve(context.Background(), []domain.Selection{
		group("g", true),
		user("z", false),
	})

	require.NoError(t, err)
	assert.Empty(t, mandatory)
	assert.Equal(t, []string{"z"}, optional)
}

func TestResolve_GroupLookupFailurePropagates(t *testing.T) {
	boom := errors.New("graph unavailable")
	r := NewResolver(&fakeGroups{err: boom})

	_, _, err := r.Resolve(context.Background(), []domain.Selection{group("g", true)})

	require.ErrorIs(t, err, boom)
}

func TestAutoRegister_SkipsAlreadyRegistered(t *testing.T) {
	auto := AutoRegister([]string{"a", "b", "c"}, []string{"b"})

	assert.Equal(t, []string{"a", "c"}, auto)
}

func TestAutoRegister_EmptyMandatory(t *testing.T) {
	assert.Empty(t, AutoRegister(nil, []string{"a"}))
}
