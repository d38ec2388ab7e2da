package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cardbook/cardbook-api/models"
	"github.com/cardbook/cardbook-api/srs"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cardbook_test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.FlashcardSet{},
		&models.Flashcard{},
		&models.CardSchedule{},
	))
	return db
}

// seedSet creates a user and a set with three cards, returning the set's
// public ID and the cards' public IDs in list order.
func seedSet(t *testing.T, db *gorm.DB, isPublic bool) (string, []string) {
	t.Helper()
	user := models.User{Auth0ID: "auth0|alice", Nickname: "alice"}
	require.NoError(t, db.Create(&user).Error)

	set := models.FlashcardSet{Title: "Spanish basics", UserID: user.ID, PublicID: "set-abc", IsPublic: isPublic}
	require.NoError(t, db.Create(&set).Error)

	ids := []string{"card-1", "card-2", "card-3"}
	for i, id := range ids {
		card := models.Flashcard{
			Term:     "term",
			Solution: "solution",
			PublicID: id,
			SetID:    set.ID,
		}
		require.NoError(t, db.Create(&card).Error, "card %d", i)
	}
	return set.PublicID, ids
}

func TestCards_OrderedRefs(t *testing.T) {
	db := testDB(t)
	setID, cardIDs := seedSet(t, db, false)

	refs, err := NewCards(db).Cards(context.Background(), "auth0|alice", setID)
	require.NoError(t, err)
	require.Len(t, refs, 3)
	for i, ref := range refs {
		assert.Equal(t, cardIDs[i], ref.ID)
		assert.Equal(t, i, ref.Index)
	}
}

func TestCards_SetNotFound(t *testing.T) {
	db := testDB(t)
	seedSet(t, db, false)

	_, err := NewCards(db).Cards(context.Background(), "auth0|alice", "no-such-set")
	assert.ErrorIs(t, err, srs.ErrSetNotFound)
}

func TestCards_PrivateSetDeniedToOthers(t *testing.T) {
	db := testDB(t)
	setID, _ := seedSet(t, db, false)

	_, err := NewCards(db).Cards(context.Background(), "auth0|mallory", setID)
	assert.ErrorIs(t, err, srs.ErrAccessDenied)
}

func TestCards_PublicSetVisibleToAnyUser(t *testing.T) {
	db := testDB(t)
	setID, _ := seedSet(t, db, true)

	refs, err := NewCards(db).Cards(context.Background(), "auth0|bob", setID)
	require.NoError(t, err)
	assert.Len(t, refs, 3)
}

func TestSchedules_GetAbsent(t *testing.T) {
	db := testDB(t)

	rec, err := NewSchedules(db).Get(context.Background(), "auth0|alice", "card-1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSchedules_PutGetRoundTrip(t *testing.T) {
	db := testDB(t)
	schedules := NewSchedules(db)
	ctx := context.Background()

	state := srs.State{
		Repetitions: 2,
		Interval:    6,
		EaseFactor:  2.5,
		Due:         time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC),
		LastReview:  time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, schedules.Put(ctx, "auth0|alice", "card-1", state, 0))

	rec, err := schedules.Get(ctx, "auth0|alice", "card-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(1), rec.Version)
	assert.Equal(t, state.Repetitions, rec.State.Repetitions)
	assert.Equal(t, state.Interval, rec.State.Interval)
	assert.InDelta(t, state.EaseFactor, rec.State.EaseFactor, 1e-9)
	assert.True(t, rec.State.Due.Equal(state.Due), "Due = %v, want %v", rec.State.Due, state.Due)
	assert.True(t, rec.State.LastReview.Equal(state.LastReview))
}

func TestSchedules_UpdateBumpsVersion(t *testing.T) {
	db := testDB(t)
	schedules := NewSchedules(db)
	ctx := context.Background()

	first := srs.State{Repetitions: 1, Interval: 1, EaseFactor: 2.5, Due: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, schedules.Put(ctx, "auth0|alice", "card-1", first, 0))

	second := srs.State{Repetitions: 2, Interval: 6, EaseFactor: 2.5, Due: time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, schedules.Put(ctx, "auth0|alice", "card-1", second, 1))

	rec, err := schedules.Get(ctx, "auth0|alice", "card-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(2), rec.Version)
	assert.Equal(t, 6, rec.State.Interval)
}

func TestSchedules_StaleWriteConflicts(t *testing.T) {
	db := testDB(t)
	schedules := NewSchedules(db)
	ctx := context.Background()

	state := srs.State{Repetitions: 1, Interval: 1, EaseFactor: 2.5, Due: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, schedules.Put(ctx, "auth0|alice", "card-1", state, 0))

	// A second create and an update against a stale version must both lose.
	assert.ErrorIs(t, schedules.Put(ctx, "auth0|alice", "card-1", state, 0), srs.ErrConflict)
	assert.ErrorIs(t, schedules.Put(ctx, "auth0|alice", "card-1", state, 5), srs.ErrConflict)
}

func TestSchedules_ListReturnsOnlyStoredCards(t *testing.T) {
	db := testDB(t)
	schedules := NewSchedules(db)
	ctx := context.Background()

	state := srs.State{Repetitions: 1, Interval: 1, EaseFactor: 2.5, Due: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, schedules.Put(ctx, "auth0|alice", "card-2", state, 0))
	require.NoError(t, schedules.Put(ctx, "auth0|bob", "card-1", state, 0))

	states, err := schedules.List(ctx, "auth0|alice", []string{"card-1", "card-2", "card-3"})
	require.NoError(t, err)
	require.Len(t, states, 1)
	_, ok := states["card-2"]
	assert.True(t, ok, "expected alice's card-2 state")

	empty, err := schedules.List(ctx, "auth0|alice", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSchedules_DeleteForCards(t *testing.T) {
	db := testDB(t)
	schedules := NewSchedules(db)
	ctx := context.Background()

	state := srs.State{Repetitions: 1, Interval: 1, EaseFactor: 2.5, Due: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, schedules.Put(ctx, "auth0|alice", "card-1", state, 0))
	require.NoError(t, schedules.Put(ctx, "auth0|bob", "card-1", state, 0))
	require.NoError(t, schedules.Put(ctx, "auth0|alice", "card-2", state, 0))

	require.NoError(t, schedules.DeleteForCards(ctx, []string{"card-1"}))

	// card-1 records are gone for every user, card-2 survives.
	rec, err := schedules.Get(ctx, "auth0|alice", "card-1")
	require.NoError(t, err)
	assert.Nil(t, rec)
	rec, err = schedules.Get(ctx, "auth0|bob", "card-1")
	require.NoError(t, err)
	assert.Nil(t, rec)
	rec, err = schedules.Get(ctx, "auth0|alice", "card-2")
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

// End-to-end through the scheduler against the real store: review a card,
// confirm it leaves the due list until its date arrives.
func TestSchedulerWithGormStore(t *testing.T) {
	db := testDB(t)
	setID, cardIDs := seedSet(t, db, false)
	ctx := context.Background()

	clock := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	sched := srs.New(NewCards(db), NewSchedules(db), srs.WithNow(func() time.Time { return clock }))

	due, err := sched.DueCards(ctx, "auth0|alice", setID)
	require.NoError(t, err)
	assert.Len(t, due, 3, "new cards are all due")

	nextDue, err := sched.SubmitReview(ctx, "auth0|alice", setID, 1, 4)
	require.NoError(t, err)
	assert.True(t, nextDue.Equal(time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)))

	due, err = sched.DueCards(ctx, "auth0|alice", setID)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, cardIDs[0], due[0].ID)
	assert.Equal(t, cardIDs[2], due[1].ID)

	clock = clock.AddDate(0, 0, 1)
	due, err = sched.DueCards(ctx, "auth0|alice", setID)
	require.NoError(t, err)
	assert.Len(t, due, 3, "reviewed card is due again on its due date")
}
