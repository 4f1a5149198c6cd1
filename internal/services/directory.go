package services

import (
	"context"
	"log/slog"

	"github.com/cookshare/apiserver/types"
)

// RecipeLister fetches the full recipe list, newest first.
type RecipeLister interface {
	ListNewestFirst(ctx context.Context) ([]types.Recipe, error)
}

// ProfileFetcher fetches display profiles for a set of account ids.
type ProfileFetcher interface {
	GetSummaries(ctx context.Context, ids []string) ([]types.ProfileSummary, error)
}

// DirectoryService assembles the public recipe directory. It keeps no
// state between calls; every List re-fetches both sources.
type DirectoryService struct {
	recipes  RecipeLister
	profiles ProfileFetcher
	logger   *slog.Logger
}

func NewDirectoryService(recipes RecipeLister, profiles ProfileFetcher, logger *slog.Logger) *DirectoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectoryService{
		recipes:  recipes,
		profiles: profiles,
		logger:   logger,
	}
}

// List returns every recipe joined with its owner's profile, newest first.
// A failed recipe fetch is returned as is. A failed profile fetch only
// costs the enrichment: entries come back with a nil Profile.
func (s *DirectoryService) List(ctx context.Context) ([]types.DirectoryEntry, error) {
	recipes, err := s.recipes.ListNewestFirst(ctx)
	if err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return []types.DirectoryEntry{}, nil
	}

	profiles, err := s.profiles.GetSummaries(ctx, OwnerIDs(recipes))
	if err != nil {
		s.logger.WarnContext(ctx, "profile enrichment failed, listing without profiles",
			"recipes", len(recipes),
			"error", err,
		)
		profiles = nil
	}

	return JoinProfiles(recipes, profiles), nil
}

// ListFiltered is List followed by Filter.
func (s *DirectoryService) ListFiltered(ctx context.Context, filter types.DirectoryFilter) ([]types.DirectoryEntry, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(entries, filter), nil
}

// OwnerIDs returns the distinct owner ids of recipes in first-seen order.
func OwnerIDs(recipes []types.Recipe) []string {
	seen := make(map[string]struct{}, len(recipes))
	ids := make([]string, 0, len(recipes))
	for _, recipe := range recipes {
		if _, ok := seen[recipe.UserID]; ok {
			continue
		}
		seen[recipe.UserID] = struct{}{}
		ids = append(ids, recipe.UserID)
	}
	return ids
}

// JoinProfiles left-joins recipes with profiles on owner id. The output has
// one entry per recipe in the input order. If profiles repeats an id the
// last occurrence wins.
func JoinProfiles(recipes []types.Recipe, profiles []types.ProfileSummary) []types.DirectoryEntry {
	byID := make(map[string]types.ProfileSummary, len(profiles))
	for _, profile := range profiles {
		byID[profile.ID] = profile
	}

	entries := make([]types.DirectoryEntry, len(recipes))
	for i, recipe := range recipes {
		entries[i].Recipe = recipe
		if profile, ok := byID[recipe.UserID]; ok {
			entries[i].Profile = &profile
		}
	}
	return entries
}
