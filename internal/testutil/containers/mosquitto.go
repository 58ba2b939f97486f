//go:build integration

//nolint:misspell // Mosquitto is the official Eclipse project name
package containers

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// MosquittoContainer wraps a testcontainers Eclipse Mosquitto MQTT broker
// instance. The broker is configured to allow anonymous connections, which
// matches how collars authenticate in test herds.
type MosquittoContainer struct {
	container  testcontainers.Container
	brokerURL  string
	configFile string
}

// NewMosquittoContainer creates and starts a Mosquitto MQTT broker container.
func NewMosquittoContainer(ctx context.Context) (*MosquittoContainer, error) {
	configFile, err := writeAnonymousMosquittoConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create mosquitto config: %w", err)
	}

	req := testcontainers.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
		Files: []testcontainers.ContainerFile{
			{
				HostFilePath:      configFile,
				ContainerFilePath: "/mosquitto-no-auth.conf",
				FileMode:          0o644,
			},
		},
		WaitingFor: wait.ForLog("mosquitto version").
			WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		_ = os.Remove(configFile)
		return nil, fmt.Errorf("failed to start Mosquitto container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		_ = os.Remove(configFile)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	mappedPort, err := container.MappedPort(ctx, "1883")
	if err != nil {
		_ = container.Terminate(ctx)
		_ = os.Remove(configFile)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	mc := &MosquittoContainer{
		container:  container,
		brokerURL:  fmt.Sprintf("tcp://%s", net.JoinHostPort(host, strconv.Itoa(mappedPort.Int()))),
		configFile: configFile,
	}

	if err := mc.HealthCheck(); err != nil {
		_ = container.Terminate(ctx)
		_ = os.Remove(configFile)
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	return mc, nil
}

func writeAnonymousMosquittoConfig() (string, error) {
	tmpFile, err := os.CreateTemp("", "mosquitto-*.conf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp config: %w", err)
	}
	if _, err := tmpFile.WriteString("listener 1883\nallow_anonymous true\n"); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpFile.Name())
		return "", fmt.Errorf("failed to close temp config: %w", err)
	}
	return tmpFile.Name(), nil
}

// BrokerURL returns the MQTT broker URL (e.g. "tcp://localhost:32815").
func (c *MosquittoContainer) BrokerURL() string {
	return c.brokerURL
}

// HealthCheck verifies the broker accepts connections.
func (c *MosquittoContainer) HealthCheck() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.brokerURL)
	opts.SetClientID("healthcheck")
	opts.SetConnectTimeout(5 * time.Second)
	opts.SetAutoReconnect(false)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("health check timeout after 5s")
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to connect to broker: %w", token.Error())
	}
	client.Disconnect(250)
	return nil
}

// CreateClient creates a new MQTT client connected to this broker. The
// caller is responsible for disconnecting the client when done.
func (c *MosquittoContainer) CreateClient(clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.brokerURL)
	opts.SetClientID(clientID)
	opts.SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connect timeout for client %s", clientID)
	}
	if token.Error() != nil {
		return nil, fmt.Errorf("failed to connect client: %w", token.Error())
	}
	return client, nil
}

// Terminate stops and removes the Mosquitto container and cleans up the
// temporary config file.
func (c *MosquittoContainer) Terminate(ctx context.Context) error {
	var terminateErr error
	if c.container != nil {
		if err := c.container.Terminate(ctx); err != nil {
			terminateErr = fmt.Errorf("failed to terminate container: %w", err)
		}
	}
	if c.configFile != "" {
		if err := os.Remove(c.configFile); err != nil && !os.IsNotExist(err) {
			fmt.Printf("Warning: failed to remove temp config file %s: %v\n", c.configFile, err)
		}
	}
	return terminateErr
}
