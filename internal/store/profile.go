package store

import (
	"context"
	"database/sql"

	"github.com/cookshare/apiserver/types"
	"github.com/lib/pq"
)

// ProfileRepository handles persistence for profiles.
type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetSummaries returns the display fields of every profile whose id is in ids.
// Ids without a profile row are simply absent from the result.
func (r *ProfileRepository) GetSummaries(ctx context.Context, ids []string) ([]types.ProfileSummary, error) {
	if len(ids) == 0 {
		return []types.ProfileSummary{}, nil
	}

	const query = `
		SELECT id, username, fullname, bio
		FROM profiles
		WHERE id = ANY($1::uuid[])`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	summaries := make([]types.ProfileSummary, 0, len(ids))
	for rows.Next() {
		var summary types.ProfileSummary
		if err := rows.Scan(&summary.ID, &summary.Username, &summary.FullName, &summary.Bio); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (types.Profile, error) {
	const query = `
		SELECT id, username, fullname, bio, created_at, updated_at
		FROM profiles
		WHERE id = $1`
	var profile types.Profile
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&profile.ID,
		&profile.Username,
		&profile.FullName,
		&profile.Bio,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return types.Profile{}, translateError(err)
	}
	return profile, nil
}

// Update changes the mutable fields of the profile with the given id and
// refreshes updated_at. The username is never written.
func (r *ProfileRepository) Update(ctx context.Context, id string, patch types.ProfilePatch) (types.Profile, error) {
	const query = `
		UPDATE profiles
		SET fullname = COALESCE($2, fullname),
			bio = COALESCE($3, bio),
			updated_at = now()
		WHERE id = $1
		RETURNING id, username, fullname, bio, created_at, updated_at`
	var profile types.Profile
	err := r.db.QueryRowContext(ctx, query, id, patch.FullName, patch.Bio).Scan(
		&profile.ID,
		&profile.Username,
		&profile.FullName,
		&profile.Bio,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return types.Profile{}, translateError(err)
	}
	return profile, nil
}
