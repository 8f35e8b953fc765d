package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/Sternrassler/people-finder/internal/config"
	"github.com/Sternrassler/people-finder/internal/testutil"
	"github.com/Sternrassler/people-finder/pkg/people"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv points the loader at an empty config directory and the given
// People service.
func setupEnv(t *testing.T, baseURL string) {
	t.Helper()
	for _, name := range []string{"PEOPLE_ENV", "ENV_FILE", "REDIS_ADDR", "PUSHGATEWAY_URL"} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
	t.Setenv("PEOPLE_CONFIG_DIR", t.TempDir())
	t.Setenv("PEOPLE_BASE_URL", baseURL)
	t.Setenv("LOG_LEVEL", "error")
}

func newPeopleMock(t *testing.T) *testutil.MockPeople {
	t.Helper()
	mock := testutil.NewMockPeople()
	t.Cleanup(mock.Close)

	mock.SetPages(
		testutil.MockPage{IDs: []people.ID{1, 2, 3}, NextToken: "p2"},
		testutil.MockPage{IDs: []people.ID{4, 5}},
	)
	mock.AddPeople(
		people.Person{ID: 1, Name: "bill", Age: 39, PhoneNumber: "555-555-5555"},
		people.Person{ID: 2, Name: "zoe", Age: 25, PhoneNumber: "(555) 555-1234"},
		people.Person{ID: 3, Name: "carl", Age: 60, PhoneNumber: "555-555-0000"},
		people.Person{ID: 4, Name: "amy", Age: 18, PhoneNumber: "555.555.9999"},
		people.Person{ID: 5, Name: "kid", Age: 9, PhoneNumber: "555-5555"},
	)
	return mock
}

func execute(t *testing.T, args ...string) ([]people.Person, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := newRootCmd(out)
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		return nil, err
	}

	var result []people.Person
	require.NoError(t, json.Unmarshal(out.Bytes(), &result), "stdout: %s", out.String())
	return result, nil
}

func names(persons []people.Person) []string {
	out := make([]string, 0, len(persons))
	for _, p := range persons {
		out = append(out, p.Name)
	}
	return out
}

func TestRun_Youngest(t *testing.T) {
	mock := newPeopleMock(t)
	setupEnv(t, mock.URL())

	result, err := execute(t, "--youngest", "2")
	require.NoError(t, err)

	assert.Equal(t, []string{"amy", "zoe"}, names(result))
	assert.Equal(t, 2, mock.ListCalls())
}

func TestRun_DefaultYoungest(t *testing.T) {
	mock := newPeopleMock(t)
	setupEnv(t, mock.URL())

	result, err := execute(t)
	require.NoError(t, err)

	// "kid" has a seven digit number and is excluded.
	assert.Equal(t, []string{"amy", "bill", "carl", "zoe"}, names(result))
}

func TestRun_InvalidYoungest(t *testing.T) {
	mock := newPeopleMock(t)
	setupEnv(t, mock.URL())

	for _, arg := range []string{"0", "-2"} {
		_, err := execute(t, "--youngest", arg)
		assert.Error(t, err, "--youngest %s", arg)
	}
	_, err := execute(t, "--youngest", "many")
	assert.Error(t, err)
	assert.Equal(t, 0, mock.RequestCount())
}

func TestRun_MissingBaseURL(t *testing.T) {
	setupEnv(t, "")

	_, err := execute(t)

	var cerr *config.ConfigurationError
	require.True(t, errors.As(err, &cerr), "expected ConfigurationError, got %v", err)
	assert.Equal(t, "people_service.base_url", cerr.Key)
}

func TestRun_ListFailureKeepsPartialResult(t *testing.T) {
	mock := newPeopleMock(t)
	setupEnv(t, mock.URL())
	mock.SetHandler("/sample/list", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") == "" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"result":[1,2,3],"token":"p2"}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	})

	result, err := execute(t, "--youngest", "3")
	require.NoError(t, err)
	assert.Equal(t, []string{"bill", "carl", "zoe"}, names(result))
}

func TestRun_FirstListFailureYieldsEmptyResult(t *testing.T) {
	mock := newPeopleMock(t)
	setupEnv(t, mock.URL())
	mock.SetResponse("/sample/list", testutil.MockResponse{StatusCode: http.StatusBadRequest})

	result, err := execute(t, "--youngest", "3")
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestRun_DetailFailureSkipsPerson(t *testing.T) {
	mock := newPeopleMock(t)
	setupEnv(t, mock.URL())
	mock.SetResponse("/sample/detail/4", testutil.MockResponse{StatusCode: http.StatusNotFound})

	result, err := execute(t, "--youngest", "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"bill", "zoe"}, names(result))
}

func TestRun_PushesMetrics(t *testing.T) {
	mock := newPeopleMock(t)
	setupEnv(t, mock.URL())

	var pushes atomic.Int32
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			pushes.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()
	t.Setenv("PUSHGATEWAY_URL", gateway.URL)

	_, err := execute(t, "--youngest", "1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), pushes.Load())
}

func TestRun_PushFailureIsNotFatal(t *testing.T) {
	mock := newPeopleMock(t)
	setupEnv(t, mock.URL())

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer gateway.Close()
	t.Setenv("PUSHGATEWAY_URL", gateway.URL)

	result, err := execute(t, "--youngest", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"amy"}, names(result))
}

func TestRun_WithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	mock := newPeopleMock(t)
	setupEnv(t, mock.URL())
	t.Setenv("REDIS_ADDR", mr.Addr())

	for i := 0; i < 2; i++ {
		result, err := execute(t, "--youngest", "2")
		require.NoError(t, err)
		assert.Equal(t, []string{"amy", "zoe"}, names(result))
	}

	assert.Equal(t, 4, mock.ListCalls())
	assert.Equal(t, 1, mock.DetailCalls(1))
}

func TestRun_UnreachableRedis(t *testing.T) {
	mock := newPeopleMock(t)
	setupEnv(t, mock.URL())
	t.Setenv("REDIS_ADDR", "127.0.0.1:1")

	result, err := execute(t, "--youngest", "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"amy", "zoe"}, names(result))
}
