package tcnats

import (
	"context"
	"time"

	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mpapenbr/track-dominance/testsupport/tccontainer"
)

// NatsContainer represents a NATS server with JetStream enabled
type NatsContainer struct {
	*tccontainer.Container
	URL string
}

// SetupNats starts a NATS server with JetStream enabled
func SetupNats(ctx context.Context) (*NatsContainer, error) {
	c, err := tccontainer.Start(ctx, "nats:2.11", "4222/tcp",
		tccontainer.WithCmd("-js"),
		tccontainer.WithWait(30*time.Second, wait.ForLog("Server is ready")),
	)
	if err != nil {
		return nil, err
	}
	return &NatsContainer{Container: c, URL: "nats://" + c.Addr}, nil
}
