// Package docker is a worked-example tool pack exercising internal/registry:
// it wraps the Docker SDK client the teacher depended on
// (dkmcp/internal/docker/client.go) and registers container inspection
// tools against a live registry.Registry instead of the teacher's fixed
// tools/list switch. The teacher's exec/file whitelist enforcement lived in
// a bespoke security.Policy; spec.md treats concrete authorization as an
// external collaborator (internal/authz) rather than something this module
// implements, so that layer is not carried forward here — see DESIGN.md.
package docker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/fenwicklabs/mcprt/internal/redact"
)

// Client wraps the Docker SDK client used by every tool this package
// registers. Output text that flows back to a caller is scrubbed through
// scrub before it leaves the process, mirroring the teacher's
// OutputMasker use on exec/log output (now generalized in internal/redact).
type Client struct {
	docker *client.Client
	scrub  *redact.Scrubber
}

// NewClient builds a Client from the ambient Docker environment
// (DOCKER_HOST, DOCKER_API_VERSION, ...), matching the teacher's
// client.FromEnv bootstrap.
func NewClient(scrub *redact.Scrubber) (*Client, error) {
	dc, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("demotools/docker: create client: %w", err)
	}
	return &Client{docker: dc, scrub: scrub}, nil
}

func (c *Client) Close() error { return c.docker.Close() }

func (c *Client) scrubString(s string) string {
	if c.scrub == nil {
		return s
	}
	return c.scrub.Scrub(s)
}

// ContainerInfo is the simplified container shape these tools report.
type ContainerInfo struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Image  string   `json:"image"`
	State  string   `json:"state"`
	Status string   `json:"status"`
	Ports  []string `json:"ports,omitempty"`
}

func (c *Client) listContainers(ctx context.Context) ([]ContainerInfo, error) {
	containers, err := c.docker.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, err
	}
	out := make([]ContainerInfo, 0, len(containers))
	for _, ctr := range containers {
		name := strings.TrimPrefix(firstOrEmpty(ctr.Names), "/")
		out = append(out, ContainerInfo{
			ID:     shortID(ctr.ID),
			Name:   name,
			Image:  ctr.Image,
			State:  ctr.State,
			Status: ctr.Status,
			Ports:  formatPorts(ctr.Ports),
		})
	}
	return out, nil
}

func firstOrEmpty(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func formatPorts(ports []container.Port) []string {
	if len(ports) == 0 {
		return nil
	}
	out := make([]string, 0, len(ports))
	for _, p := range ports {
		if p.PublicPort != 0 {
			out = append(out, fmt.Sprintf("%s:%d->%d/%s", p.IP, p.PublicPort, p.PrivatePort, p.Type))
		} else {
			out = append(out, fmt.Sprintf("%d/%s", p.PrivatePort, p.Type))
		}
	}
	return out
}

func (c *Client) logs(ctx context.Context, name, tail, since string) (string, error) {
	rc, err := c.docker.ContainerLogs(ctx, name, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       tail,
		Since:      since,
		Timestamps: true,
	})
	if err != nil {
		return "", err
	}
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return "", err
	}
	return c.scrubString(buf.String()), nil
}

func (c *Client) stats(ctx context.Context, name string) (map[string]any, error) {
	resp, err := c.docker.ContainerStats(ctx, name, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) exec(ctx context.Context, name, command string) (int, string, error) {
	execCfg := container.ExecOptions{
		Cmd:          strings.Fields(command),
		AttachStdout: true,
		AttachStderr: true,
	}
	created, err := c.docker.ContainerExecCreate(ctx, name, execCfg)
	if err != nil {
		return 0, "", err
	}
	attach, err := c.docker.ContainerExecAttach(ctx, created.ID, container.ExecStartOptions{})
	if err != nil {
		return 0, "", err
	}
	defer attach.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, attach.Reader); err != nil {
		return 0, "", err
	}
	inspect, err := c.docker.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return 0, "", err
	}
	return inspect.ExitCode, c.scrubString(buf.String()), nil
}

func fmtJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func (c *Client) inspect(ctx context.Context, name string) (map[string]any, error) {
	raw, err := c.docker.ContainerInspect(ctx, name)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":      raw.ID,
		"name":    strings.TrimPrefix(raw.Name, "/"),
		"image":   raw.Config.Image,
		"state":   raw.State.Status,
		"created": raw.Created,
	}, nil
}

