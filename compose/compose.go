// Package compose drives the docker compose stack hosting the geocoder
// and its importer containers. Lifecycle operations shell out to the
// docker compose CLI; stack verification goes through the Docker API.
package compose

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// BaseComposeFile is always passed first; auxiliary files stack on top.
const BaseComposeFile = "docker-compose.yml"

// CommandRunner executes an external command, streaming its output to the
// caller's terminal. Injected so tests can intercept invocations.
type CommandRunner func(ctx context.Context, name string, args ...string) error

func defaultRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Client wraps docker compose invocations for one stack of compose files.
type Client struct {
	files []string
	log   *slog.Logger
	run   CommandRunner
}

// NewClient creates a compose client layering the auxiliary files on top
// of the base compose file.
func NewClient(files []string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{files: files, log: log, run: defaultRunner}
}

// WithRunner overrides command execution, for tests.
func (c *Client) WithRunner(run CommandRunner) *Client {
	c.run = run
	return c
}

// FileArgs returns the -f arguments for every compose file in the stack,
// base file first.
func (c *Client) FileArgs() []string {
	args := make([]string, 0, 2*(len(c.files)+1))
	for _, f := range append([]string{BaseComposeFile}, c.files...) {
		args = append(args, "-f", f)
	}
	return args
}

// Up pulls and starts the stack in the background, building images as
// needed.
func (c *Client) Up(ctx context.Context) error {
	c.log.Info("bringing compose stack up", "files", strings.Join(c.files, ","))
	if err := c.compose(ctx, "pull"); err != nil {
		return errors.Wrap(err, "compose pull")
	}
	if err := c.compose(ctx, "up", "-d", "--build"); err != nil {
		return errors.Wrap(err, "compose up")
	}
	return nil
}

// Down stops the stack. Containers are kept so their logs stay available.
func (c *Client) Down(ctx context.Context) error {
	c.log.Info("stopping compose stack")
	return errors.Wrap(c.compose(ctx, "stop"), "compose stop")
}

// Run executes a one-shot command inside a service container and removes
// the container afterwards.
func (c *Client) Run(ctx context.Context, service string, cmd ...string) error {
	args := append([]string{"run", "--rm", service}, cmd...)
	return errors.Wrapf(c.compose(ctx, args...), "compose run %s", service)
}

func (c *Client) compose(ctx context.Context, args ...string) error {
	full := append(c.FileArgs(), args...)
	c.log.Info("running", "cmd", "docker-compose "+strings.Join(full, " "))
	return c.run(ctx, "docker-compose", full...)
}
