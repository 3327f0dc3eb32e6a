package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-backend/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	return s
}

func submission(desc string) *model.Submission {
	return &model.Submission{
		Sender:      "919999888777@c.us",
		Description: desc,
		Vendor:      "RK TEXTILES",
		Images: []model.SubmissionImage{
			{Filename: "img_1.jpg", Base64: "Zm9v"},
			{Filename: "img_2.jpg", Base64: "YmFy"},
		},
		ReceivedAt: time.Now().UTC(),
	}
}

func TestSaveAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveSubmission(ctx, submission("first listing"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	recs, err := s.ListSubmissions(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "919999888777@c.us", rec.Sender)
	assert.Equal(t, "first listing", rec.Description)
	assert.Equal(t, "RK TEXTILES", rec.Vendor)
	assert.Equal(t, []string{"img_1.jpg", "img_2.jpg"}, rec.Images)
}

func TestListSubmissions_MostRecentFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// created_at has second precision in sqlite; force distinct timestamps
	// by writing them directly.
	for i, desc := range []string{"oldest", "middle", "newest"} {
		rec := &SubmissionRecord{
			ID:          uuid.New(),
			Sender:      "sender@c.us",
			Description: desc,
			Vendor:      "DEFAULT",
			CreatedAt:   time.Date(2026, 8, 1, 10, 0, i, 0, time.UTC),
		}
		require.NoError(t, s.db.WithContext(ctx).Create(rec).Error)
	}

	recs, err := s.ListSubmissions(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "newest", recs[0].Description)
	assert.Equal(t, "middle", recs[1].Description)
	assert.Equal(t, "oldest", recs[2].Description)
}

func TestListSubmissions_Empty(t *testing.T) {
	s := openTestStore(t)

	recs, err := s.ListSubmissions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestEnsureVendor(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.EnsureVendor(ctx, "RK TEXTILES")
	require.NoError(t, err)
	assert.True(t, created)

	// Second sighting is a no-op.
	created, err = s.EnsureVendor(ctx, "RK TEXTILES")
	require.NoError(t, err)
	assert.False(t, created)

	// Blank names are ignored rather than stored.
	created, err = s.EnsureVendor(ctx, "")
	require.NoError(t, err)
	assert.False(t, created)

	vendors, err := s.ListVendors(ctx)
	require.NoError(t, err)
	require.Len(t, vendors, 1)
	assert.Equal(t, "RK TEXTILES", vendors[0].Name)
}
