//go:build integration

package containers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// NtfyContainer wraps a testcontainers ntfy push notification server
// instance, the delivery target for shoutrrr ntfy:// recipient URLs.
type NtfyContainer struct {
	container testcontainers.Container
	host      string
	port      int
}

// NtfyMessage represents a message received from an ntfy topic.
type NtfyMessage struct {
	ID      string `json:"id"`
	Topic   string `json:"topic"`
	Message string `json:"message"`
	Title   string `json:"title"`
	Time    int64  `json:"time"`
}

// NewNtfyContainer creates and starts an ntfy push notification server
// container with message caching enabled, so delivered messages can be
// polled back for assertions.
func NewNtfyContainer(ctx context.Context) (*NtfyContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        "binwiederhier/ntfy:latest",
		ExposedPorts: []string{"80/tcp"},
		Cmd:          []string{"serve", "--cache-file=/tmp/ntfy/cache.db"},
		Tmpfs:        map[string]string{"/tmp/ntfy": "rw"},
		WaitingFor: wait.ForHTTP("/v1/health").
			WithPort("80/tcp").
			WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start ntfy container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	mappedPort, err := container.MappedPort(ctx, "80")
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	return &NtfyContainer{
		container: container,
		host:      host,
		port:      mappedPort.Int(),
	}, nil
}

// Host returns the host:port string where the ntfy server is accessible.
func (c *NtfyContainer) Host() string {
	return net.JoinHostPort(c.host, strconv.Itoa(c.port))
}

// URL returns the full HTTP URL for the ntfy server.
func (c *NtfyContainer) URL() string {
	return fmt.Sprintf("http://%s", c.Host())
}

// PollMessages retrieves all cached messages from a topic using poll mode.
func (c *NtfyContainer) PollMessages(ctx context.Context, topic string) ([]NtfyMessage, error) {
	url := fmt.Sprintf("%s/%s/json?poll=1", c.URL(), topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to poll messages: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("poll request failed with status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// ntfy returns newline-delimited JSON, one message per line
	var messages []NtfyMessage
	for line := range strings.SplitSeq(strings.TrimSpace(string(body)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var msg NtfyMessage
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			return nil, fmt.Errorf("failed to parse message JSON: %w", err)
		}
		// Skip keepalive/open events that carry no message
		if msg.Message == "" && msg.ID == "" {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Terminate stops and removes the ntfy container.
func (c *NtfyContainer) Terminate(ctx context.Context) error {
	if c.container != nil {
		if err := c.container.Terminate(ctx); err != nil {
			return fmt.Errorf("failed to terminate container: %w", err)
		}
	}
	return nil
}
