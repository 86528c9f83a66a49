package service

import (
	"context"
	"fmt"
	"time"

	"github.com/akozyrev/TrainingEvents/internal/domain"
	"github.com/akozyrev/TrainingEvents/internal/service/ports"
)

// InstallationService records and removes conversation references as the
// bot is installed and uninstalled.
type InstallationService struct {
	repo ports.InstallationRepo
	now  func() time.Time
}

func NewInstallationService(repo ports.InstallationRepo) *InstallationService {
	return &InstallationService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *InstallationService) InstallUser(ctx context.Context, userID string, chatID int64, serviceURL string) error {
	if userID == "" || chatID == 0 {
		return fmt.Errorf("%w: user_id and chat_id are required", domain.ErrValidation)
	}
	return s.repo.SaveUser(ctx, &domain.UserInstallation{
		UserID:     userID,
		ChatID:     chatID,
		ServiceURL: serviceURL,
		CreatedAt:  s.now(),
	})
}

func (s *InstallationService) UninstallUser(ctx context.Context, userID string) error {
	return s.repo.DeleteUser(ctx, userID)
}

func (s *InstallationService) InstallTeam(ctx context.Context, teamID string, chatID int64, serviceURL string) error {
	if teamID == "" || chatID == 0 {
		return fmt.Errorf("%w: team_id and chat_id are required", domain.ErrValidation)
	}
	return s.repo.SaveTeam(ctx, &domain.TeamInstallation{
		TeamID:     teamID,
		ChatID:     chatID,
		ServiceURL: serviceURL,
		CreatedAt:  s.now(),
	})
}

func (s *InstallationService) UninstallTeam(ctx context.Context, teamID string) error {
	return s.repo.DeleteTeam(ctx, teamID)
}
