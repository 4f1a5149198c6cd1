package services

import (
	"context"
	"strings"

	"github.com/cookshare/apiserver/types"
)

// ProfileRepository defines persistence operations for profiles.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (types.Profile, error)
	Update(ctx context.Context, id string, patch types.ProfilePatch) (types.Profile, error)
}

// ProfileService reads any profile and lets a caller edit only their own.
type ProfileService struct {
	repo ProfileRepository
}

func NewProfileService(repo ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

func (s *ProfileService) Get(ctx context.Context, id string) (types.Profile, error) {
	return s.repo.GetByID(ctx, id)
}

// GetOwn returns the caller's profile.
func (s *ProfileService) GetOwn(ctx context.Context, caller types.CallerIdentity) (types.Profile, error) {
	if !caller.Authenticated() {
		return types.Profile{}, ErrAuthenticationRequired
	}
	return s.repo.GetByID(ctx, caller.UserID)
}

// UpdateOwn changes the caller's full name and bio. The target row is
// always the caller's, so there is no id parameter to spoof.
func (s *ProfileService) UpdateOwn(ctx context.Context, caller types.CallerIdentity, patch types.ProfilePatch) (types.Profile, error) {
	if !caller.Authenticated() {
		return types.Profile{}, ErrAuthenticationRequired
	}
	if patch.FullName != nil {
		name := strings.TrimSpace(*patch.FullName)
		patch.FullName = &name
	}
	return s.repo.Update(ctx, caller.UserID, patch)
}
