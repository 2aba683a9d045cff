package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidyboard/tidyboard/internal/domain/board"
	"github.com/tidyboard/tidyboard/internal/testserver"
)

type lockResponse struct {
	Success  bool   `json:"success"`
	Locked   bool   `json:"locked"`
	LockedBy string `json:"lockedBy"`
}

type syncResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Tasks     []board.Task   `json:"tasks"`
		Players   []board.Player `json:"players"`
		Lines     []board.Line   `json:"lines"`
		Project   *board.Project `json:"project"`
		Timestamp time.Time      `json:"timestamp"`
	} `json:"data"`
}

type activeResponse struct {
	Success bool     `json:"success"`
	Active  []string `json:"active"`
}

func doJSON(t *testing.T, token, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func seedProject(t *testing.T, ts *testserver.TestServer, owner string) string {
	t.Helper()
	proj, err := ts.Board.CreateProject(context.Background(), board.CreateProjectRequest{
		Name:    "Launch Board",
		OwnerID: owner,
		Type:    board.TypeTeam,
	})
	require.NoError(t, err)
	return proj.ID
}

// Two users race for the organize lock; exactly one wins and the loser sees
// the winner's name. After the TTL passes with no release, the loser's
// retry succeeds.
func TestOrganizeLockRace(t *testing.T) {
	ts := testserver.New(t, 60*time.Second, 90*time.Second)

	token1, err := ts.AddUser("u1", "U1")
	require.NoError(t, err)
	token2, err := ts.AddUser("u2", "U2")
	require.NoError(t, err)

	projectID := seedProject(t, ts, "u1")
	url := ts.Server.URL + "/projects/" + projectID + "/organize-lock"

	var mu sync.Mutex
	results := make(map[string]lockResponse)
	var wg sync.WaitGroup
	for user, token := range map[string]string{"U1": token1, "U2": token2} {
		wg.Add(1)
		go func(user, token string) {
			defer wg.Done()
			resp := doJSON(t, token, http.MethodPost, url, nil)
			body := decode[lockResponse](t, resp)
			mu.Lock()
			results[user] = body
			mu.Unlock()
		}(user, token)
	}
	wg.Wait()

	winners := 0
	var winner string
	for user, res := range results {
		if res.Success {
			winners++
			winner = user
			require.False(t, res.Locked)
		}
	}
	require.Equal(t, 1, winners, "exactly one user wins the lock")

	for user, res := range results {
		if user != winner {
			require.True(t, res.Locked)
			require.Equal(t, winner, res.LockedBy)
		}
	}

	// 61 seconds later, with no release, the lock has expired
	ts.Advance(61 * time.Second)
	resp := doJSON(t, token2, http.MethodPost, url, nil)
	body := decode[lockResponse](t, resp)
	require.True(t, body.Success)
	require.False(t, body.Locked)
}

func TestOrganizeLockReleaseFlow(t *testing.T) {
	ts := testserver.New(t, 60*time.Second, 90*time.Second)

	token1, err := ts.AddUser("u1", "Alice")
	require.NoError(t, err)
	token2, err := ts.AddUser("u2", "Bob")
	require.NoError(t, err)

	projectID := seedProject(t, ts, "u1")
	url := ts.Server.URL + "/projects/" + projectID + "/organize-lock"

	// Alice acquires, Bob is denied and sees Alice's name
	body := decode[lockResponse](t, doJSON(t, token1, http.MethodPost, url, nil))
	require.True(t, body.Success)

	body = decode[lockResponse](t, doJSON(t, token2, http.MethodPost, url, nil))
	require.False(t, body.Success)
	require.Equal(t, "Alice", body.LockedBy)

	// Status shows the holder
	status := decode[map[string]any](t, doJSON(t, token2, http.MethodGet, url, nil))
	require.Equal(t, true, status["locked"])
	require.Equal(t, "Alice", status["lockedBy"])

	// Any participant may release; Bob then acquires immediately
	resp := doJSON(t, token2, http.MethodDelete, url, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	body = decode[lockResponse](t, doJSON(t, token2, http.MethodPost, url, nil))
	require.True(t, body.Success)
}

func TestSyncSnapshot(t *testing.T) {
	ts := testserver.New(t, 60*time.Second, 90*time.Second)

	token, err := ts.AddUser("u1", "Alice")
	require.NoError(t, err)

	projectID := seedProject(t, ts, "u1")
	base := ts.Server.URL

	// Build a board over HTTP: three tasks, two players, two assignments
	var taskIDs []string
	for _, desc := range []string{"Plan", "Build", "Ship"} {
		resp := doJSON(t, token, http.MethodPost, base+"/projects/"+projectID+"/tasks",
			map[string]any{"description": desc, "urgency": 50, "importance": 50})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		task := decode[board.Task](t, resp)
		taskIDs = append(taskIDs, task.ID)
	}

	var playerIDs []string
	for _, name := range []string{"Alice", "Bob"} {
		resp := doJSON(t, token, http.MethodPost, base+"/projects/"+projectID+"/players",
			map[string]any{"name": name})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		player := decode[board.Player](t, resp)
		playerIDs = append(playerIDs, player.ID)
	}

	for i := 0; i < 2; i++ {
		resp := doJSON(t, token, http.MethodPut,
			base+"/tasks/"+taskIDs[i]+"/assignees/"+playerIDs[i], nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp := doJSON(t, token, http.MethodPost, base+"/projects/"+projectID+"/lines",
		map[string]any{"from_task_id": taskIDs[0], "to_task_id": taskIDs[1]})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	payload := decode[syncResponse](t, doJSON(t, token, http.MethodGet, base+"/projects/"+projectID+"/sync", nil))

	require.True(t, payload.Success)
	require.Equal(t, projectID, payload.Data.Project.ID)
	require.Len(t, payload.Data.Tasks, 3)
	require.Len(t, payload.Data.Players, 2)
	require.Len(t, payload.Data.Lines, 1)
	require.False(t, payload.Data.Timestamp.IsZero())

	// Tasks come newest-first; assignee list lengths are 0, 1, 1
	require.Equal(t, taskIDs[2], payload.Data.Tasks[0].ID)
	require.Len(t, payload.Data.Tasks[0].Assignees, 0)
	require.Len(t, payload.Data.Tasks[1].Assignees, 1)
	require.Len(t, payload.Data.Tasks[2].Assignees, 1)
	require.NotNil(t, payload.Data.Tasks[0].Assignees)

	// Players keep creation order
	require.Equal(t, playerIDs[0], payload.Data.Players[0].ID)
	require.Equal(t, playerIDs[1], payload.Data.Players[1].ID)
}

func TestSyncEmptyBoardAndMissingProject(t *testing.T) {
	ts := testserver.New(t, 60*time.Second, 90*time.Second)

	token, err := ts.AddUser("u1", "Alice")
	require.NoError(t, err)

	projectID := seedProject(t, ts, "u1")

	resp := doJSON(t, token, http.MethodGet, ts.Server.URL+"/projects/"+projectID+"/sync", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payload := decode[syncResponse](t, resp)
	require.True(t, payload.Success)
	require.NotNil(t, payload.Data.Tasks)
	require.Empty(t, payload.Data.Tasks)
	require.NotNil(t, payload.Data.Players)
	require.NotNil(t, payload.Data.Lines)

	missing := doJSON(t, token, http.MethodGet, ts.Server.URL+"/projects/nope/sync", nil)
	require.Equal(t, http.StatusNotFound, missing.StatusCode)
	missing.Body.Close()
}

func TestHeartbeatAndActiveSet(t *testing.T) {
	ts := testserver.New(t, 60*time.Second, 90*time.Second)

	token1, err := ts.AddUser("u1", "Alice")
	require.NoError(t, err)
	token2, err := ts.AddUser("u2", "Bob")
	require.NoError(t, err)

	projectID := seedProject(t, ts, "u1")
	activityURL := ts.Server.URL + "/projects/" + projectID + "/activity"

	for _, token := range []string{token1, token2} {
		resp := doJSON(t, token, http.MethodPost, activityURL, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	active := decode[activeResponse](t, doJSON(t, token1, http.MethodGet, activityURL, nil))
	require.ElementsMatch(t, []string{"u1", "u2"}, active.Active)

	// Bob beats again 60s in; 31s later Alice has aged out of the 90s
	// window and Bob has not
	ts.Advance(60 * time.Second)
	resp := doJSON(t, token2, http.MethodPost, activityURL, nil)
	resp.Body.Close()

	ts.Advance(31 * time.Second)
	active = decode[activeResponse](t, doJSON(t, token1, http.MethodGet, activityURL, nil))
	require.Equal(t, []string{"u2"}, active.Active)
}

// The full organize flow: take the lock, run the bulk operation, release.
func TestOrganizeFlow(t *testing.T) {
	ts := testserver.New(t, 60*time.Second, 90*time.Second)

	token, err := ts.AddUser("u1", "Alice")
	require.NoError(t, err)

	projectID := seedProject(t, ts, "u1")
	base := ts.Server.URL

	resp := doJSON(t, token, http.MethodPost, base+"/projects/"+projectID+"/tasks",
		map[string]any{"description": "Refine backlog", "urgency": 10, "importance": 10})
	task := decode[board.Task](t, resp)

	resp = doJSON(t, token, http.MethodPatch, base+"/tasks/"+task.ID,
		map[string]any{"predicted_urgency": 80, "predicted_importance": 70})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	lockURL := base + "/projects/" + projectID + "/organize-lock"
	body := decode[lockResponse](t, doJSON(t, token, http.MethodPost, lockURL, nil))
	require.True(t, body.Success)

	organized := decode[struct {
		Success bool  `json:"success"`
		Updated int64 `json:"updated"`
	}](t, doJSON(t, token, http.MethodPost, base+"/projects/"+projectID+"/organize", nil))
	require.True(t, organized.Success)
	require.Equal(t, int64(1), organized.Updated)

	resp = doJSON(t, token, http.MethodDelete, lockURL, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// The prediction is applied and cleared
	updated := decode[board.Task](t, doJSON(t, token, http.MethodPatch, base+"/tasks/"+task.ID,
		map[string]any{"archived": false}))
	require.Equal(t, 80, updated.Urgency)
	require.Equal(t, 70, updated.Importance)
	require.Nil(t, updated.PredictedUrgency)
}
