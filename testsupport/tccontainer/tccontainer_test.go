package tccontainer

import (
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gotest.tools/v3/assert"
)

func TestOptions(t *testing.T) {
	req := testcontainers.GenericContainerRequest{}
	for _, opt := range []Option{
		WithEnv("POSTGRES_USER", "postgres"),
		WithEnv("POSTGRES_DB", "postgres"),
		WithCmd("postgres", "-c", "fsync=off"),
		WithName("track-dominance-test"),
		WithWait(time.Minute, wait.ForLog("ready")),
	} {
		opt(&req)
	}
	assert.DeepEqual(t, req.Env, map[string]string{
		"POSTGRES_USER": "postgres",
		"POSTGRES_DB":   "postgres",
	})
	assert.DeepEqual(t, req.Cmd, []string{"postgres", "-c", "fsync=off"})
	assert.Equal(t, req.Name, "track-dominance-test")
	assert.Check(t, req.Reuse)
	assert.Check(t, req.WaitingFor != nil)
}
