package compose

import (
	"context"
	"log/slog"

	dockertypes "github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/pkg/errors"
)

// VerifyDaemon checks that a Docker daemon is reachable and reports the
// running containers. It is the precondition behind every operation that
// assumes compose mode: failing it means the stack cannot be running.
func VerifyDaemon(ctx context.Context, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return errors.Wrap(err, "docker client")
	}
	defer cli.Close()

	if _, err := cli.Ping(ctx); err != nil {
		return errors.Wrap(err, "docker daemon not reachable")
	}

	containers, err := cli.ContainerList(ctx, dockertypes.ContainerListOptions{})
	if err != nil {
		return errors.Wrap(err, "listing containers")
	}
	for _, ctr := range containers {
		log.Debug("container running", "id", ctr.ID[:12], "image", ctr.Image, "state", ctr.State)
	}
	log.Info("docker daemon reachable", "running_containers", len(containers))
	return nil
}
