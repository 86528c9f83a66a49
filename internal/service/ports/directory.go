package ports

import (
	"context"

	"github.com/akozyrev/TrainingEvents/internal/domain"
)

// GroupReader resolves group membership; pagination is internal and the
// result is a flattened member list.
type GroupReader interface {
	GetMembers(ctx context.Context, groupID string) ([]string, error)
}

// CollaboratorReader returns the user ids sharing a group with the viewer.
// The set is dynamic per viewer, which is why collaborator-popularity
// sorting cannot be pushed into the index.
type CollaboratorReader interface {
	GetCollaborators(ctx context.Context, userID string) ([]string, error)
}

type InstallationRepo interface {
	SaveUser(ctx context.Context, inst *domain.UserInstallation) error
	DeleteUser(ctx context.Context, userID string) error
	GetUsers(ctx context.Context, userIDs []string) ([]*domain.UserInstallation, error)
	SaveTeam(ctx context.Context, inst *domain.TeamInstallation) error
	DeleteTeam(ctx context.Context, teamID string) error
	GetTeam(ctx context.Context, teamID string) (*domain.TeamInstallation, error)
}
