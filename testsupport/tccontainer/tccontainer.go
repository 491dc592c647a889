// Package tccontainer starts the docker containers used by the integration tests.
package tccontainer

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type (
	// Option adjusts the request before the container is started
	Option func(req *testcontainers.GenericContainerRequest)

	// Container is a started container together with the address of its
	// service port on the docker host.
	Container struct {
		testcontainers.Container
		Addr string
	}
)

// WithWait waits for all strategies, at most the given startup time
func WithWait(startup time.Duration, strategies ...wait.Strategy) Option {
	return func(req *testcontainers.GenericContainerRequest) {
		req.WaitingFor = wait.ForAll(strategies...).WithDeadline(startup)
	}
}

// WithName names the container. Named containers are reused between test runs.
func WithName(name string) Option {
	return func(req *testcontainers.GenericContainerRequest) {
		req.Name = name
		req.Reuse = true
	}
}

func WithEnv(key, value string) Option {
	return func(req *testcontainers.GenericContainerRequest) {
		if req.Env == nil {
			req.Env = map[string]string{}
		}
		req.Env[key] = value
	}
}

func WithCmd(cmd ...string) Option {
	return func(req *testcontainers.GenericContainerRequest) {
		req.Cmd = cmd
	}
}

// Start runs image and exposes servicePort (e.g. "5432/tcp").
//
//nolint:whitespace // editor/linter issue
func Start(
	ctx context.Context, image string, servicePort nat.Port, opts ...Option,
) (*Container, error) {
	req := testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{string(servicePort)},
		},
		Started: true,
	}
	for _, opt := range opts {
		opt(&req)
	}
	c, err := testcontainers.GenericContainer(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", image, err)
	}
	mapped, err := c.MappedPort(ctx, servicePort)
	if err != nil {
		return nil, err
	}
	host, err := c.Host(ctx)
	if err != nil {
		return nil, err
	}
	return &Container{Container: c, Addr: fmt.Sprintf("%s:%s", host, mapped.Port())}, nil
}
