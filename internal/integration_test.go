package internal_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/fitwise/internal/db/migrations"
	"github.com/2beens/fitwise/internal/exercises"
	"github.com/2beens/fitwise/internal/recommendations"
	"github.com/2beens/fitwise/internal/workouts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestHealthAndVersion() {
	t := s.T()
	ctx := context.Background()

	resp, body := s.doRequest(ctx, "GET", "/version", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "test-version-info", string(body))

	resp, body = s.doRequest(ctx, "GET", "/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"postgres":"ok","redis":"ok"}`, string(body))
}

func (s *IntegrationTestSuite) TestMigrationsAreIdempotent() {
	require.NoError(s.T(), migrations.UpWithDB(s.DB))

	var tables int
	err := s.DB.QueryRow(`
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = 'public'
			AND table_name IN ('users', 'exercise', 'workout_event', 'recommendation')`,
	).Scan(&tables)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 4, tables)
}

func (s *IntegrationTestSuite) TestAuth() {
	t := s.T()
	ctx := context.Background()

	user := newFakeUser()
	creds := map[string]string{"email": user.Email, "password": user.Password}

	resp, _ := s.doRequest(ctx, "POST", "/auth/register", creds, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// same email, different case
	upperCreds := map[string]string{"email": strings.ToUpper(user.Email), "password": user.Password}
	resp, _ = s.doRequest(ctx, "POST", "/auth/register", upperCreds, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = s.doRequest(ctx, "POST", "/auth/login", map[string]string{"email": user.Email, "password": "wrong-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := s.doRequest(ctx, "POST", "/auth/login", creds, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var loginResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &loginResp))

	resp, _ = s.doRequest(ctx, "GET", "/recommendations/unread/count", nil, loginResp.Token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = s.doRequest(ctx, "GET", "/auth/logout", nil, loginResp.Token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "logged-out", string(body))

	// token is gone
	resp, _ = s.doRequest(ctx, "GET", "/recommendations/unread/count", nil, loginResp.Token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = s.doRequest(ctx, "GET", "/recommendations", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestExercisesAndWorkouts() {
	t := s.T()
	ctx := context.Background()
	user := s.registerAndLogin(ctx)

	resp, body := s.doRequest(ctx, "POST", "/exercises", exercises.Exercise{
		ExerciseID:  "bench_press",
		MuscleGroup: exercises.MuscleGroupChest,
		Kilos:       80,
		Reps:        8,
	}, user.Token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var added exercises.AddExerciseResponse
	require.NoError(t, json.Unmarshal(body, &added))
	assert.Equal(t, 1, added.CountToday)

	resp, body = s.doRequest(ctx, "GET", fmt.Sprintf("/exercises/%d", added.ID), nil, user.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched exercises.Exercise
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, "bench_press", fetched.ExerciseID)

	// other users cannot see it
	other := s.registerAndLogin(ctx)
	resp, _ = s.doRequest(ctx, "GET", fmt.Sprintf("/exercises/%d", added.ID), nil, other.Token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = s.doRequest(ctx, "GET", "/exercises/list/page/1/size/10", nil, user.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list exercises.ListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, 1, list.Total)

	resp, _ = s.doRequest(ctx, "POST", "/workouts/start", workouts.TrainingStart{}, user.Token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = s.doRequest(ctx, "POST", "/workouts/finish", workouts.TrainingFinish{Calories: 420}, user.Token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = s.doRequest(ctx, "GET", "/workouts/list/page/1/size/10?type=training_started", nil, user.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var events workouts.ListResponse
	require.NoError(t, json.Unmarshal(body, &events))
	assert.Equal(t, 1, events.Total)

	resp, _ = s.doRequest(ctx, "DELETE", fmt.Sprintf("/exercises/%d", added.ID), nil, user.Token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestRecommendations() {
	t := s.T()
	ctx := context.Background()
	user := s.registerAndLogin(ctx)

	// nothing logged yet: a getting started hint
	resp, body := s.doRequest(ctx, "POST", "/recommendations/generate", nil, user.Token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var generated []recommendations.Recommendation
	require.NoError(t, json.Unmarshal(body, &generated))
	require.Len(t, generated, 1)
	assert.Equal(t, recommendations.CategoryGettingStarted, generated[0].Category)

	// generating again does not duplicate unread recommendations
	resp, body = s.doRequest(ctx, "POST", "/recommendations/generate", nil, user.Token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &generated))
	assert.Empty(t, generated)

	// a couple of sets and one training: frequency advice
	for i := 0; i < 3; i++ {
		resp, _ = s.doRequest(ctx, "POST", "/exercises", exercises.Exercise{
			ExerciseID:  "squat",
			MuscleGroup: exercises.MuscleGroupLegs,
			Kilos:       100,
			Reps:        5,
			CreatedAt:   time.Now().Add(-time.Duration(i) * time.Hour),
		}, user.Token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	resp, _ = s.doRequest(ctx, "POST", "/workouts/start", workouts.TrainingStart{}, user.Token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = s.doRequest(ctx, "POST", "/recommendations/generate", nil, user.Token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &generated))
	require.Len(t, generated, 1)
	assert.Equal(t, recommendations.CategoryFrequency, generated[0].Category)

	resp, body = s.doRequest(ctx, "GET", "/recommendations/unread/count", nil, user.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"unread":2}`, string(body))

	// newest first
	resp, body = s.doRequest(ctx, "GET", "/recommendations", nil, user.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list recommendations.ListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Recommendations, 2)
	assert.Equal(t, recommendations.CategoryFrequency, list.Recommendations[0].Category)
	assert.Equal(t, float64(10), list.Query.Limit)
	assert.Nil(t, list.Query.IsRead)

	resp, _ = s.doRequest(ctx, "PATCH", fmt.Sprintf("/recommendations/%d/read", list.Recommendations[1].ID), map[string]bool{"isRead": true}, user.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = s.doRequest(ctx, "GET", "/recommendations/unread/count", nil, user.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"unread":1}`, string(body))

	resp, body = s.doRequest(ctx, "GET", "/recommendations?isRead=true&limit=25", nil, user.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Recommendations, 1)
	assert.True(t, list.Recommendations[0].IsRead)
	assert.Equal(t, float64(25), list.Query.Limit)

	// anything but the exact "true" is false
	resp, body = s.doRequest(ctx, "GET", "/recommendations?isRead=True", nil, user.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Recommendations, 1)
	assert.False(t, list.Recommendations[0].IsRead)

	// fractional limits ask for at least one row
	resp, body = s.doRequest(ctx, "POST", "/recommendations/query", map[string]any{"limit": 0.5}, user.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list.Recommendations, 1)

	for _, query := range []string{"limit=0", "limit=101", "limit=abc", "limit="} {
		resp, body = s.doRequest(ctx, "GET", "/recommendations?"+query, nil, user.Token)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, query)
		assert.JSONEq(t, `{"field":"limit","message":"Limit must be a number from 1 to 100"}`, string(body), query)
	}

	// other users' recommendations are not found
	other := s.registerAndLogin(ctx)
	resp, _ = s.doRequest(ctx, "PATCH", fmt.Sprintf("/recommendations/%d/read", list.Recommendations[0].ID), map[string]bool{"isRead": true}, other.Token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
