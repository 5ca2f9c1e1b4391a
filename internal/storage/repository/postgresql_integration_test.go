package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/quitters/internal/lib/calendar"
	"github.com/magabrotheeeer/quitters/internal/models"
	"github.com/magabrotheeeer/quitters/internal/storage"
)

func TestStorage_Integration(t *testing.T) {
	st, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(st)

	t.Run("register and read user", func(t *testing.T) {
		id := factory.CreateUser(t)

		u, err := st.GetUser(ctx, id)
		require.NoError(t, err)
		assert.True(t, u.IsPublic)
		assert.Nil(t, u.LastUseDate)
		assert.Nil(t, u.QuitDate)

		byEmail, err := st.GetUserByEmail(ctx, u.Email)
		require.NoError(t, err)
		assert.Equal(t, id, byEmail.ID)

		_, err = st.RegisterUser(ctx, models.User{Email: u.Email, Username: "other", PasswordHash: "x"})
		assert.ErrorIs(t, err, storage.ErrUserExists)
	})

	t.Run("unknown and malformed ids", func(t *testing.T) {
		_, err := st.GetUser(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, storage.ErrUserNotFound)

		_, err = st.GetUser(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, storage.ErrUserNotFound)

		e, err := st.FindLatestEntry(ctx, "not-a-uuid", nil)
		require.NoError(t, err)
		assert.Nil(t, e)

		err = st.SaveLastUseDate(ctx, "00000000-0000-0000-0000-000000000000", nil)
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
	})

	t.Run("find latest respects date order and exclusions", func(t *testing.T) {
		id := factory.CreateUser(t)
		factory.CreateEntry(t, id, "2024-01-01", models.EntryTypeSmoked)
		factory.CreateEntry(t, id, "2024-01-15", models.EntryTypeVaped)
		factory.CreateEntry(t, id, "2024-01-10", models.EntryTypeSmoked)
		factory.CreateEntry(t, id, "2024-01-20", models.EntryTypeNicotineReplacement)

		latest, err := st.FindLatestEntry(ctx, id, []models.EntryType{models.EntryTypeNicotineReplacement})
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, "2024-01-15", latest.Date.String())

		latest, err = st.FindLatestEntry(ctx, id, nil)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, "2024-01-20", latest.Date.String())
	})

	t.Run("entry lifecycle", func(t *testing.T) {
		id := factory.CreateUser(t)
		e := factory.CreateEntry(t, id, "2024-03-01", models.EntryTypeSmoked)
		assert.Equal(t, id, e.UserID)
		assert.False(t, e.Created.IsZero())

		_, err := st.CreateEntry(ctx, models.TrackingEntry{UserID: id, Date: e.Date, Type: models.EntryTypeVaped})
		assert.ErrorIs(t, err, storage.ErrEntryExists)

		byDate, err := st.ReadEntryByDate(ctx, id, calendar.MustParse("2024-03-01"))
		require.NoError(t, err)
		assert.Equal(t, e.ID, byDate.ID)

		e.Type = models.EntryTypeVaped
		e.Date = calendar.MustParse("2024-03-02")
		updated, err := st.UpdateEntry(ctx, *e)
		require.NoError(t, err)
		assert.Equal(t, models.EntryTypeVaped, updated.Type)
		assert.Equal(t, "2024-03-02", updated.Date.String())

		removed, err := st.RemoveEntry(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, e.ID, removed.ID)
		assert.Equal(t, id, removed.UserID)

		_, err = st.ReadEntry(ctx, e.ID)
		assert.ErrorIs(t, err, storage.ErrEntryNotFound)
		_, err = st.RemoveEntry(ctx, e.ID)
		assert.ErrorIs(t, err, storage.ErrEntryNotFound)
	})

	t.Run("list entries in range", func(t *testing.T) {
		id := factory.CreateUser(t)
		factory.CreateEntry(t, id, "2024-01-31", models.EntryTypeSmoked)
		factory.CreateEntry(t, id, "2024-02-01", models.EntryTypeSmoked)
		factory.CreateEntry(t, id, "2024-02-29", models.EntryTypeVaped)
		factory.CreateEntry(t, id, "2024-03-01", models.EntryTypeSmoked)

		from, to := calendar.MonthRange(2024, 2)
		got, err := st.ListEntries(ctx, id, &from, &to, 100)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "2024-02-29", got[0].Date.String())
		assert.Equal(t, "2024-02-01", got[1].Date.String())

		all, err := st.ListEntries(ctx, id, nil, nil, 0)
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})

	t.Run("save last use date and profile", func(t *testing.T) {
		id := factory.CreateUser(t)
		d := calendar.MustParse("2024-05-05")
		require.NoError(t, st.SaveLastUseDate(ctx, id, &d))

		u, err := st.GetUser(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, u.LastUseDate)
		assert.Equal(t, d, *u.LastUseDate)

		quit := calendar.MustParse("2024-04-01")
		private := false
		u, err = st.UpdateProfile(ctx, id, models.ProfilePatch{QuitDate: &quit, IsPublic: &private})
		require.NoError(t, err)
		assert.False(t, u.IsPublic)
		require.NotNil(t, u.QuitDate)
		assert.Equal(t, quit, *u.QuitDate)
		require.NotNil(t, u.LastUseDate, "profile update must not touch last_use_date")

		u, err = st.UpdateProfile(ctx, id, models.ProfilePatch{ClearQuitDate: true})
		require.NoError(t, err)
		assert.Nil(t, u.QuitDate)

		require.NoError(t, st.SaveLastUseDate(ctx, id, nil))
		u, err = st.GetUser(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, u.LastUseDate)
	})

	t.Run("list user ids", func(t *testing.T) {
		ids, err := st.ListUserIDs(ctx, 1000, 0)
		require.NoError(t, err)
		assert.NotEmpty(t, ids)
	})
}
