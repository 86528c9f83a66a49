// Package mocks provides testify mocks for the service ports.
package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/akozyrev/TrainingEvents/internal/domain"
)

type MockEventStore struct {
	mock.Mock
}

func NewMockEventStore(t *testing.T) *MockEventStore {
	m := &MockEventStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockEventStore) Get(ctx context.Context, teamID, eventID string) (*domain.Event, error) {
	args := m.Called(ctx, teamID, eventID)
	if e, ok := args.Get(0).(*domain.Event); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEventStore) Insert(ctx context.Context, e *domain.Event) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockEventStore) Update(ctx context.Context, e *domain.Event) error {
	return m.Called(ctx, e).Error(0)
}

type MockCategoryRepo struct {
	mock.Mock
}

func NewMockCategoryRepo(t *testing.T) *MockCategoryRepo {
	m := &MockCategoryRepo{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCategoryRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*domain.Category); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCategoryRepo) List(ctx context.Context) ([]*domain.Category, error) {
	args := m.Called(ctx)
	if cs, ok := args.Get(0).([]*domain.Category); ok {
		return cs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCategoryRepo) Update(ctx context.Context, c *domain.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCategoryRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockGroupReader struct {
	mock.Mock
}

func NewMockGroupReader(t *testing.T) *MockGroupReader {
	m := &MockGroupReader{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockGroupReader) GetMembers(ctx context.Context, groupID string) ([]string, error) {
	args := m.Called(ctx, groupID)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockCollaboratorReader struct {
	mock.Mock
}

func NewMockCollaboratorReader(t *testing.T) *MockCollaboratorReader {
	m := &MockCollaboratorReader{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCollaboratorReader) GetCollaborators(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockInstallationRepo struct {
	mock.Mock
}

func NewMockInstallationRepo(t *testing.T) *MockInstallationRepo {
	m := &MockInstallationRepo{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockInstallationRepo) SaveUser(ctx context.Context, inst *domain.UserInstallation) error {
	return m.Called(ctx, inst).Error(0)
}

func (m *MockInstallationRepo) DeleteUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockInstallationRepo) GetUsers(ctx context.Context, userIDs []string) ([]*domain.UserInstallation, error) {
	args := m.Called(ctx, userIDs)
	if insts, ok := args.Get(0).([]*domain.UserInstallation); ok {
		return insts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInstallationRepo) SaveTeam(ctx context.Context, inst *domain.TeamInstallation) error {
	return m.Called(ctx, inst).Error(0)
}

func (m *MockInstallationRepo) DeleteTeam(ctx context.Context, teamID string) error {
	return m.Called(ctx, teamID).Error(0)
}

func (m *MockInstallationRepo) GetTeam(ctx context.Context, teamID string) (*domain.TeamInstallation, error) {
	args := m.Called(ctx, teamID)
	if inst, ok := args.Get(0).(*domain.TeamInstallation); ok {
		return inst, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockCalendar struct {
	mock.Mock
}

func NewMockCalendar(t *testing.T) *MockCalendar {
	m := &MockCalendar{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCalendar) CreateEvent(ctx context.Context, e *domain.Event) (string, error) {
	args := m.Called(ctx, e)
	return args.String(0), args.Error(1)
}

func (m *MockCalendar) UpdateEvent(ctx context.Context, e *domain.Event) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockCalendar) CancelEvent(ctx context.Context, externalID, organizerID, comment string) error {
	return m.Called(ctx, externalID, organizerID, comment).Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func NewMockNotifier(t *testing.T) *MockNotifier {
	m := &MockNotifier{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockNotifier) PostOrUpdateTeamCard(ctx context.Context, team *domain.TeamInstallation, activityID string, e *domain.Event) string {
	return m.Called(ctx, team, activityID, e).String(0)
}

func (m *MockNotifier) NotifyEventUpdated(ctx context.Context, recipients []*domain.UserInstallation, e *domain.Event) []string {
	return stringsOrNil(m.Called(ctx, recipients, e))
}

func (m *MockNotifier) NotifyEventCancelled(ctx context.Context, recipients []*domain.UserInstallation, e *domain.Event) []string {
	return stringsOrNil(m.Called(ctx, recipients, e))
}

func (m *MockNotifier) NotifyAutoRegistered(ctx context.Context, recipients []*domain.UserInstallation, e *domain.Event) []string {
	return stringsOrNil(m.Called(ctx, recipients, e))
}

func (m *MockNotifier) NotifyReminder(ctx context.Context, recipients []*domain.UserInstallation, e *domain.Event) []string {
	return stringsOrNil(m.Called(ctx, recipients, e))
}

type MockIndexTrigger struct {
	mock.Mock
}

func NewMockIndexTrigger(t *testing.T) *MockIndexTrigger {
	m := &MockIndexTrigger{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockIndexTrigger) TriggerReindex(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockIndexQuery struct {
	mock.Mock
}

func NewMockIndexQuery(t *testing.T) *MockIndexQuery {
	m := &MockIndexQuery{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockIndexQuery) QueryByTeam(ctx context.Context, teamID string, page domain.Page) ([]*domain.IndexedEvent, error) {
	args := m.Called(ctx, teamID, page)
	if es, ok := args.Get(0).([]*domain.IndexedEvent); ok {
		return es, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIndexQuery) QueryForUser(ctx context.Context, userID string, sort domain.UserEventSort, limit, offset int) ([]*domain.IndexedEvent, error) {
	args := m.Called(ctx, userID, sort, limit, offset)
	if es, ok := args.Get(0).([]*domain.IndexedEvent); ok {
		return es, args.Error(1)
	}
	return nil, args.Error(1)
}

func stringsOrNil(args mock.Arguments) []string {
	if ids, ok := args.Get(0).([]string); ok {
		return ids
	}
	return nil
}
