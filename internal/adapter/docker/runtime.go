// Package docker observes containers through the Docker Engine API.
package docker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	cache "github.com/Code-Hex/go-generics-cache"
	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"portolan"
	"portolan/mapper"
)

const (
	// DefaultCallTimeout bounds every Engine API call. Stats reads
	// block while the daemon samples twice, so this must stay well
	// above one second.
	DefaultCallTimeout = 15 * time.Second

	// DefaultTagTTL is how long resolved image tags are cached.
	DefaultTagTTL = 5 * time.Minute

	shortIDLen = 12
)

var _ mapper.ContainerRuntime = (*Runtime)(nil)

// Runtime implements mapper.ContainerRuntime using the Docker Engine
// API. It only reads: list, stats, image metadata.
type Runtime struct {
	cli     *client.Client
	log     *slog.Logger
	host    string
	timeout time.Duration
	tagTTL  time.Duration

	tags     *cache.Cache[string, string]
	tagsStop context.CancelFunc
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithHost overrides the DOCKER_HOST the client connects to.
func WithHost(host string) Option {
	return func(r *Runtime) { r.host = host }
}

// WithCallTimeout bounds individual Engine API calls.
func WithCallTimeout(d time.Duration) Option {
	return func(r *Runtime) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithTagTTL sets how long resolved image tags are cached.
func WithTagTTL(d time.Duration) Option {
	return func(r *Runtime) {
		if d > 0 {
			r.tagTTL = d
		}
	}
}

// WithLogger sets the logger used for observation events.
func WithLogger(log *slog.Logger) Option {
	return func(r *Runtime) { r.log = log.With("component", "docker") }
}

// NewRuntime creates a Runtime with a Docker client configured from
// the environment.
func NewRuntime(opts ...Option) (*Runtime, error) {
	r := &Runtime{
		log:     slog.Default().With("component", "docker"),
		timeout: DefaultCallTimeout,
		tagTTL:  DefaultTagTTL,
	}
	for _, opt := range opts {
		opt(r)
	}

	clientOpts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if r.host != "" {
		clientOpts = append(clientOpts, client.WithHost(r.host))
	}
	cli, err := client.NewClientWithOpts(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	r.cli = cli

	cacheCtx, stop := context.WithCancel(context.Background())
	r.tags = cache.NewContext[string, string](cacheCtx)
	r.tagsStop = stop
	return r, nil
}

// Client returns the underlying Docker client.
func (r *Runtime) Client() *client.Client {
	return r.cli
}

func (r *Runtime) Ping(ctx context.Context) error {
	ctx, cancel := r.callCtx(ctx)
	defer cancel()

	if _, err := r.cli.Ping(ctx); err != nil {
		return fmt.Errorf("ping docker daemon: %w", err)
	}
	return nil
}

func (r *Runtime) ListContainers(ctx context.Context) ([]mapper.ContainerSummary, error) {
	ctx, cancel := r.callCtx(ctx)
	defer cancel()

	list, err := r.cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	out := make([]mapper.ContainerSummary, 0, len(list))
	for _, item := range list {
		out = append(out, mapper.ContainerSummary{
			ID:       ShortID(item.ID),
			Name:     containerName(item),
			Status:   item.State,
			Image:    r.imageTag(ctx, item.ImageID),
			Networks: endpointAddresses(item),
		})
	}
	return out, nil
}

func (r *Runtime) ContainerStats(ctx context.Context, id string) (portolan.RawStats, error) {
	ctx, cancel := r.callCtx(ctx)
	defer cancel()

	// stream=false makes the daemon sample twice so precpu_stats is
	// populated and a CPU delta can be computed from one response.
	resp, err := r.cli.ContainerStats(ctx, id, false)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return portolan.RawStats{}, fmt.Errorf("container %s gone: %w", id, err)
		}
		return portolan.RawStats{}, fmt.Errorf("container stats %s: %w", id, err)
	}
	defer resp.Body.Close()

	var payload container.StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return portolan.RawStats{}, fmt.Errorf("decode stats %s: %w", id, err)
	}
	return rawStats(payload), nil
}

func (r *Runtime) Close() error {
	r.tagsStop()
	return r.cli.Close()
}

// imageTag resolves an image id to its first repo tag, caching the
// answer so a stable fleet costs one inspect per image per TTL.
func (r *Runtime) imageTag(ctx context.Context, imageID string) string {
	if tag, ok := r.tags.Get(imageID); ok {
		return tag
	}

	info, err := r.cli.ImageInspect(ctx, imageID)
	if err != nil {
		r.log.Debug("image inspect failed", "image", imageID, "err", err)
		return portolan.UnknownImage
	}
	tag := portolan.UnknownImage
	if len(info.RepoTags) > 0 {
		tag = info.RepoTags[0]
	}
	r.tags.Set(imageID, tag, cache.WithExpiration(r.tagTTL))
	return tag
}

func (r *Runtime) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// ShortID truncates a container id to the familiar 12-character form.
func ShortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func containerName(item container.Summary) string {
	if len(item.Names) == 0 {
		return ShortID(item.ID)
	}
	return strings.TrimPrefix(item.Names[0], "/")
}

func endpointAddresses(item container.Summary) map[string]string {
	out := make(map[string]string)
	if item.NetworkSettings == nil {
		return out
	}
	for name, endpoint := range item.NetworkSettings.Networks {
		if endpoint == nil {
			out[name] = ""
			continue
		}
		out[name] = endpoint.IPAddress
	}
	return out
}

func rawStats(payload container.StatsResponse) portolan.RawStats {
	raw := portolan.RawStats{
		CPU: portolan.CPUSample{
			TotalUsage:  payload.CPUStats.CPUUsage.TotalUsage,
			SystemUsage: payload.CPUStats.SystemUsage,
		},
		PreCPU: portolan.CPUSample{
			TotalUsage:  payload.PreCPUStats.CPUUsage.TotalUsage,
			SystemUsage: payload.PreCPUStats.SystemUsage,
		},
		MemoryUsage: payload.MemoryStats.Usage,
	}
	if len(payload.Networks) > 0 {
		raw.Interfaces = make(map[string]portolan.InterfaceStats, len(payload.Networks))
		for name, iface := range payload.Networks {
			raw.Interfaces[name] = portolan.InterfaceStats{
				RxBytes: iface.RxBytes,
				TxBytes: iface.TxBytes,
			}
		}
	}
	return raw
}
