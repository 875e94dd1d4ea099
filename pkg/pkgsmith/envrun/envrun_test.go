package envrun

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	writeEnvFile(t, dir, ".env", "A=base\nB=base\n")
	writeEnvFile(t, dir, ".env.local", "B=local\nC=local\n")

	vars, err := LoadFiles(dir, []string{".env", ".env.local"})
	require.NoError(t, err)

	// Later files override earlier ones.
	assert.Equal(t, map[string]string{
		"A": "base",
		"B": "local",
		"C": "local",
	}, vars)
}

func TestLoadFiles_MissingSkipped(t *testing.T) {
	dir := t.TempDir()
	writeEnvFile(t, dir, ".env", "A=1\n")

	vars, err := LoadFiles(dir, []string{".env", ".env.local"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1"}, vars)
}

func TestLoadFiles_Malformed(t *testing.T) {
	dir := t.TempDir()
	writeEnvFile(t, dir, ".env", "not a valid line\n")

	_, err := LoadFiles(dir, []string{".env"})
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	environ := []string{"PATH=/bin", "HOME=/home/u"}
	vars := map[string]string{"HOME": "/tmp", "EXTRA": "1"}

	// Without override the process environment wins.
	merged := Merge(environ, vars, false)
	assert.Contains(t, merged, "HOME=/home/u")
	assert.Contains(t, merged, "EXTRA=1")
	assert.NotContains(t, merged, "HOME=/tmp")

	// With override the loaded variables win.
	merged = Merge(environ, vars, true)
	assert.Contains(t, merged, "HOME=/tmp")
	assert.NotContains(t, merged, "HOME=/home/u")
}

func TestRemoteFetch(t *testing.T) {
	client := NewRemoteClient(RemoteOptions{
		URL:     "https://secrets.example.com",
		Token:   "tok-123",
		Timeout: 5 * time.Second,
	})

	httpmock.ActivateNonDefault(client.HTTPClient())
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "https://secrets.example.com/api/v1/envs",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer tok-123", req.Header.Get("Authorization"))
			return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
				"envs": map[string]string{"API_KEY": "secret"},
			})
		})

	vars, err := client.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"API_KEY": "secret"}, vars)
}

func TestRemoteFetch_Unauthorized(t *testing.T) {
	client := NewRemoteClient(RemoteOptions{URL: "https://secrets.example.com", Token: "bad"})

	httpmock.ActivateNonDefault(client.HTTPClient())
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, "https://secrets.example.com/api/v1/envs",
		httpmock.NewStringResponder(http.StatusUnauthorized, `{"error":"bad token"}`))

	_, err := client.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrRemoteUnauthorized)
}

func TestRemoteFetch_RetriesServerError(t *testing.T) {
	client := NewRemoteClient(RemoteOptions{URL: "https://secrets.example.com"})

	httpmock.ActivateNonDefault(client.HTTPClient())
	defer httpmock.DeactivateAndReset()

	calls := 0
	httpmock.RegisterResponder(http.MethodGet, "https://secrets.example.com/api/v1/envs",
		func(req *http.Request) (*http.Response, error) {
			calls++
			if calls < 3 {
				return httpmock.NewStringResponse(http.StatusServiceUnavailable, ""), nil
			}
			return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
				"envs": map[string]string{"A": "1"},
			})
		})

	vars, err := client.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", vars["A"])
	assert.Equal(t, 3, calls)
}

func TestRun_ExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	code, err := Run(context.Background(), []string{"sh", "-c", "exit 3"}, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, code)
}

func TestRun_PassesEnvironment(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	var out bytes.Buffer
	env := Merge(os.Environ(), map[string]string{"PKGSMITH_TEST_VAR": "hello"}, true)

	code, err := Run(context.Background(), []string{"sh", "-c", "echo $PKGSMITH_TEST_VAR"}, RunOptions{
		Env:    env,
		Stdout: &out,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "hello\n", out.String())
}

func TestRun_NoCommand(t *testing.T) {
	_, err := Run(context.Background(), nil, RunOptions{})
	assert.Error(t, err)
}
