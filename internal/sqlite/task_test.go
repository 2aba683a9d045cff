package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidyboard/tidyboard/internal/domain/board"
	"github.com/tidyboard/tidyboard/internal/repository"
)

func seedProject(t *testing.T, db *DB, id string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO projects (id, name, owner_id, created_at) VALUES (?, ?, ?, ?)`,
		id, "Board "+id, "u1", time.Now())
	require.NoError(t, err)
}

func TestTaskRepository_CreateGetUpdate(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewTaskRepository(db)
	seedProject(t, db, "p1")

	predicted := 80
	task := &board.Task{
		ID:               "t1",
		ProjectID:        "p1",
		Description:      "Write the launch plan",
		Urgency:          40,
		Importance:       70,
		PredictedUrgency: &predicted,
		CreatedAt:        time.Now(),
	}
	require.NoError(t, repo.Create(ctx, task))

	got, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, "Write the launch plan", got.Description)
	require.Equal(t, 40, got.Urgency)
	require.NotNil(t, got.PredictedUrgency)
	require.Equal(t, 80, *got.PredictedUrgency)
	require.Nil(t, got.PredictedImportance)
	require.NotNil(t, got.Assignees)

	got.Urgency = 90
	got.PredictedUrgency = nil
	require.NoError(t, repo.Update(ctx, got))

	got, err = repo.Get(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, 90, got.Urgency)
	require.Nil(t, got.PredictedUrgency)
}

func TestTaskRepository_CreateRequiresProject(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewTaskRepository(db)

	err := repo.Create(ctx, &board.Task{ID: "t1", ProjectID: "missing", Description: "x", CreatedAt: time.Now()})
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)
}

func TestTaskRepository_ListWithAssignees(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	tasks := NewTaskRepository(db)
	players := NewPlayerRepository(db)
	seedProject(t, db, "p1")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"t1", "t2", "t3"} {
		require.NoError(t, tasks.Create(ctx, &board.Task{
			ID:          id,
			ProjectID:   "p1",
			Description: "Task " + id,
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, players.Create(ctx, &board.Player{ID: "pl1", ProjectID: "p1", UserID: "u1", Name: "Alice", Color: "#f00", CreatedAt: base}))
	require.NoError(t, players.Create(ctx, &board.Player{ID: "pl2", ProjectID: "p1", UserID: "u2", Name: "Bob", Color: "#0f0", CreatedAt: base.Add(time.Second)}))

	require.NoError(t, tasks.Assign(ctx, "t1", "pl1"))
	require.NoError(t, tasks.Assign(ctx, "t2", "pl2"))

	list, err := tasks.ListWithAssignees(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 3)

	// Newest first; assignee lists 0, 1, 1 and never nil
	require.Equal(t, "t3", list[0].ID)
	require.Equal(t, "t2", list[1].ID)
	require.Equal(t, "t1", list[2].ID)
	require.NotNil(t, list[0].Assignees)
	require.Empty(t, list[0].Assignees)
	require.Equal(t, []string{"pl2"}, list[1].Assignees)
	require.Equal(t, []string{"pl1"}, list[2].Assignees)

	roster, err := players.ListByProject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, roster, 2)
	require.Equal(t, "pl1", roster[0].ID)
	require.Equal(t, "pl2", roster[1].ID)
}

func TestTaskRepository_AssignIsIdempotent(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	tasks := NewTaskRepository(db)
	players := NewPlayerRepository(db)
	seedProject(t, db, "p1")

	require.NoError(t, tasks.Create(ctx, &board.Task{ID: "t1", ProjectID: "p1", Description: "Task", CreatedAt: time.Now()}))
	require.NoError(t, players.Create(ctx, &board.Player{ID: "pl1", ProjectID: "p1", UserID: "u1", Name: "Alice", Color: "#f00", CreatedAt: time.Now()}))

	require.NoError(t, tasks.Assign(ctx, "t1", "pl1"))
	require.NoError(t, tasks.Assign(ctx, "t1", "pl1"))

	list, err := tasks.ListWithAssignees(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, []string{"pl1"}, list[0].Assignees)

	require.NoError(t, tasks.Unassign(ctx, "t1", "pl1"))
	require.NoError(t, tasks.Unassign(ctx, "t1", "pl1"))
}

func TestTaskRepository_ApplyPredictions(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	tasks := NewTaskRepository(db)
	seedProject(t, db, "p1")

	u, imp := 90, 85
	require.NoError(t, tasks.Create(ctx, &board.Task{
		ID: "t1", ProjectID: "p1", Description: "Predicted", Urgency: 10, Importance: 10,
		PredictedUrgency: &u, PredictedImportance: &imp, CreatedAt: time.Now(),
	}))
	require.NoError(t, tasks.Create(ctx, &board.Task{
		ID: "t2", ProjectID: "p1", Description: "No prediction", Urgency: 20, Importance: 20,
		CreatedAt: time.Now(),
	}))
	require.NoError(t, tasks.Create(ctx, &board.Task{
		ID: "t3", ProjectID: "p1", Description: "Archived", Urgency: 30, Importance: 30,
		PredictedUrgency: &u, PredictedImportance: &imp, Archived: true, CreatedAt: time.Now(),
	}))

	updated, err := tasks.ApplyPredictions(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, int64(1), updated)

	got, err := tasks.Get(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, 90, got.Urgency)
	require.Equal(t, 85, got.Importance)
	require.Nil(t, got.PredictedUrgency)
	require.Nil(t, got.PredictedImportance)

	// Untouched tasks keep their values
	got, err = tasks.Get(ctx, "t2")
	require.NoError(t, err)
	require.Equal(t, 20, got.Urgency)

	got, err = tasks.Get(ctx, "t3")
	require.NoError(t, err)
	require.Equal(t, 30, got.Urgency)
	require.NotNil(t, got.PredictedUrgency)
}

func TestTaskRepository_DeleteNotFound(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewTaskRepository(db)

	require.ErrorIs(t, repo.Delete(ctx, "missing"), repository.ErrNotFound)
}
