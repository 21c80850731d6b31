package provider

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/rs/zerolog"

	"github.com/budgetguard/techops/internal/model"
)

// nimPort is the port NIM containers serve on.
const nimPort = "8000/tcp"

// LocalProvider deploys NIM containers on the host's Docker daemon, using
// the host GPU directly (GPU tiers do not apply).
type LocalProvider struct {
	dockerHost string
	logger     zerolog.Logger
	now        func() time.Time
}

// NewLocal creates the local capability provider. dockerHost may be empty
// to use the environment default.
func NewLocal(dockerHost string, logger zerolog.Logger) *LocalProvider {
	return &LocalProvider{
		dockerHost: dockerHost,
		logger:     logger.With().Str("component", "provider").Str("provider", "local").Logger(),
		now:        time.Now,
	}
}

func (p *LocalProvider) Name() model.Provider { return model.ProviderLocal }

func (p *LocalProvider) dockerClient() (*client.Client, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	if p.dockerHost != "" {
		opts = append(opts, client.WithHost(p.dockerHost))
	} else {
		opts = append(opts, client.FromEnv)
	}
	return client.NewClientWithOpts(opts...)
}

// Create pulls the node's NIM image and runs it with the host GPU attached,
// publishing the NIM port on an ephemeral host port.
func (p *LocalProvider) Create(ctx context.Context, spec DeploySpec) (*Deployment, error) {
	instance := InstanceName(spec.Cell, p.now())

	cli, err := p.dockerClient()
	if err != nil {
		return nil, &CallError{Provider: model.ProviderLocal, Op: "create", Err: fmt.Errorf("create docker client: %w", err)}
	}
	defer cli.Close()

	p.logger.Info().Str("instance", instance).Str("image", spec.NodeType.Image).Msg("pulling NIM image")
	reader, err := cli.ImagePull(ctx, spec.NodeType.Image, image.PullOptions{})
	if err != nil {
		return nil, &CallError{Provider: model.ProviderLocal, Op: "create", Err: fmt.Errorf("pull image %s: %w", spec.NodeType.Image, err)}
	}
	// Drain the pull output.
	_, _ = io.Copy(io.Discard, reader)
	reader.Close()

	containerCfg := &container.Config{
		Image: spec.NodeType.Image,
		Env:   []string{"NIM_MODEL=" + spec.NodeType.Name},
		ExposedPorts: nat.PortSet{
			nat.Port(nimPort): struct{}{},
		},
	}
	hostCfg := &container.HostConfig{
		PortBindings: nat.PortMap{
			// Host port 0 lets Docker pick an ephemeral port.
			nat.Port(nimPort): []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: "0"}},
		},
		Resources: container.Resources{
			DeviceRequests: []container.DeviceRequest{
				{Driver: "nvidia", Count: -1, Capabilities: [][]string{{"gpu"}}},
			},
		},
	}

	created, err := cli.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, instance)
	if err != nil {
		return nil, &CallError{Provider: model.ProviderLocal, Op: "create", Err: fmt.Errorf("create container: %w", err)}
	}

	if err := cli.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return nil, &CallError{Provider: model.ProviderLocal, Op: "create", Err: fmt.Errorf("start container: %w", err)}
	}

	hostPort, err := p.mappedPort(ctx, cli, created.ID)
	if err != nil {
		return nil, &CallError{Provider: model.ProviderLocal, Op: "create", Err: err}
	}

	endpoint := fmt.Sprintf("http://localhost:%s", hostPort)
	p.logger.Info().Str("instance", instance).Str("endpoint", endpoint).Msg("local NIM container running")

	return &Deployment{
		InstanceName: instance,
		Handle:       created.ID,
		Endpoint:     endpoint,
	}, nil
}

func (p *LocalProvider) mappedPort(ctx context.Context, cli *client.Client, containerID string) (string, error) {
	inspect, err := cli.ContainerInspect(ctx, containerID)
	if err != nil {
		return "", fmt.Errorf("inspect container: %w", err)
	}
	bindings := inspect.NetworkSettings.Ports[nat.Port(nimPort)]
	if len(bindings) == 0 {
		return "", fmt.Errorf("container %s has no binding for %s", containerID, nimPort)
	}
	return bindings[0].HostPort, nil
}

func (p *LocalProvider) Status(ctx context.Context, handle string) (Status, error) {
	cli, err := p.dockerClient()
	if err != nil {
		return StatusError, &CallError{Provider: model.ProviderLocal, Op: "status", Err: err}
	}
	defer cli.Close()

	inspect, err := cli.ContainerInspect(ctx, handle)
	if err != nil {
		return StatusError, &CallError{Provider: model.ProviderLocal, Op: "status", Err: err}
	}

	switch {
	case inspect.State.Running:
		return StatusRunning, nil
	case inspect.State.Status == "created":
		return StatusPending, nil
	case inspect.State.Status == "exited":
		return StatusStopped, nil
	default:
		return StatusError, nil
	}
}

func (p *LocalProvider) Stop(ctx context.Context, handle string) error {
	cli, err := p.dockerClient()
	if err != nil {
		return &CallError{Provider: model.ProviderLocal, Op: "stop", Err: err}
	}
	defer cli.Close()

	if err := cli.ContainerStop(ctx, handle, container.StopOptions{}); err != nil {
		return &CallError{Provider: model.ProviderLocal, Op: "stop", Err: fmt.Errorf("stop container: %w", err)}
	}
	p.logger.Info().Str("container", handle).Msg("stopped local NIM container")
	return nil
}

func (p *LocalProvider) Endpoint(ctx context.Context, handle string) (string, error) {
	cli, err := p.dockerClient()
	if err != nil {
		return "", &CallError{Provider: model.ProviderLocal, Op: "endpoint", Err: err}
	}
	defer cli.Close()

	hostPort, err := p.mappedPort(ctx, cli, handle)
	if err != nil {
		return "", &CallError{Provider: model.ProviderLocal, Op: "endpoint", Err: err}
	}
	return fmt.Sprintf("http://localhost:%s", hostPort), nil
}
