// Package relay publishes fleet events and rendered maps over MQTT.
package relay

import (
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// DefaultPrefix roots every published topic unless overridden.
const DefaultPrefix = "starchart"

// Config holds MQTT connection settings.
type Config struct {
	Broker        string `yaml:"broker" json:"broker"`
	PublishPrefix string `yaml:"publishPrefix" json:"publishPrefix"`
	ClientID      string `yaml:"clientId" json:"clientId"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// WithEnv returns cfg with MQTT_* environment variables applied on top.
func (c Config) WithEnv() Config {
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		c.Broker = v
	}
	if v := os.Getenv("MQTT_CLIENT_ID"); v != "" {
		c.ClientID = v
	}
	if v := os.Getenv("MQTT_USERNAME"); v != "" {
		c.Username = v
	}
	if v := os.Getenv("MQTT_PASSWORD"); v != "" {
		c.Password = v
	}
	if v := os.Getenv("MQTT_PUBLISH_PREFIX"); v != "" {
		c.PublishPrefix = v
	}
	if c.ClientID == "" {
		c.ClientID = "starchart"
	}
	if c.PublishPrefix == "" {
		c.PublishPrefix = DefaultPrefix
	}
	return c
}

// Client owns the broker connection.
type Client struct {
	client      mqtt.Client
	logger      *log.Logger
	isConnected bool
	mu          sync.RWMutex
	done        chan struct{}
	closeOnce   sync.Once
}

// Connect starts connecting to the configured broker in the background.
// When no broker is configured MQTT is disabled and Connect returns nil, nil.
func Connect(cfg Config, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Default()
	}
	cfg = cfg.WithEnv()
	if cfg.Broker == "" {
		logger.Info("MQTT disabled: MQTT_BROKER not set")
		return nil, nil
	}

	c := &Client{logger: logger, done: make(chan struct{})}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOrderMatters(false)

	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)
	opts.SetReconnectingHandler(c.onReconnecting)

	c.client = mqtt.NewClient(opts)
	go c.connectWithRetry()

	return c, nil
}

// newClientWithMock wraps an existing mqtt.Client, for tests.
func newClientWithMock(client mqtt.Client, logger *log.Logger) *Client {
	return &Client{client: client, logger: logger, done: make(chan struct{})}
}

// connectWithRetry keeps dialling with exponential backoff until connected
// or disconnected.
func (c *Client) connectWithRetry() {
	retryDelay := 1 * time.Second
	maxRetryDelay := 60 * time.Second

	for {
		c.logger.Info("Connecting to MQTT broker")
		token := c.client.Connect()
		if token.WaitTimeout(10 * time.Second) {
			if token.Error() == nil {
				c.setConnected(true)
				return
			}
			c.logger.Warn("MQTT connection failed", "err", token.Error())
		} else {
			c.logger.Warn("MQTT connection timeout")
		}

		c.logger.Info("Retrying MQTT connection", "in", retryDelay)
		select {
		case <-c.done:
			return
		case <-time.After(retryDelay):
		}
		retryDelay = min(retryDelay*2, maxRetryDelay)
	}
}

func (c *Client) onConnect(mqtt.Client) {
	c.logger.Info("MQTT connected")
	c.setConnected(true)
}

// onConnectionLost is transient; auto-reconnect takes over.
func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	c.logger.Warn("MQTT connection interrupted, auto-reconnect will retry", "err", err)
	c.setConnected(false)
}

func (c *Client) onReconnecting(mqtt.Client, *mqtt.ClientOptions) {
	c.logger.Debug("MQTT reconnecting")
}

// IsConnected reports whether the broker connection is up.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

func (c *Client) setConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isConnected = connected
}

// MQTT returns the underlying client for publishing.
func (c *Client) MQTT() mqtt.Client {
	return c.client
}

// Disconnect stops any pending retry and closes the connection.
func (c *Client) Disconnect() {
	c.closeOnce.Do(func() { close(c.done) })
	if c.client != nil && c.client.IsConnected() {
		c.logger.Info("Disconnecting from MQTT broker")
		c.client.Disconnect(250)
	}
	c.setConnected(false)
}
