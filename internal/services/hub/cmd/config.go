package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v2"
)

type mqttConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	ClientID string `yaml:"client_id"`
}

type influxConfig struct {
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	DeviceID      string `yaml:"device_id"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval_ms"`
}

type mailgunConfig struct {
	APIKey     string   `yaml:"api_key"`
	Domain     string   `yaml:"domain"`
	Sender     string   `yaml:"sender"`
	Recipients []string `yaml:"recipients"`
}

type alertConfig struct {
	TempHigh   float64 `yaml:"temp_high"`
	Hysteresis float64 `yaml:"hysteresis"`
}

// Config for the hub. The YAML file is optional; env vars win over it.
type Config struct {
	Port        string        `yaml:"port"`
	GRPCPort    string        `yaml:"grpc_port"`
	HistorySize int           `yaml:"history_size"`
	MQTT        mqttConfig    `yaml:"mqtt"`
	Influx      influxConfig  `yaml:"influx"`
	Mailgun     mailgunConfig `yaml:"mailgun"`
	Alert       alertConfig   `yaml:"alert"`

	ShutdownGrace time.Duration `yaml:"-"`
}

func defaultConfig() Config {
	return Config{
		Port:        "5000",
		HistorySize: 500,
		MQTT:        mqttConfig{Port: 1883, ClientID: "esp-hub"},
		Influx:      influxConfig{Org: "esp", Bucket: "esp32", DeviceID: "esp32", BatchSize: 10, FlushInterval: 200},
		Alert:       alertConfig{TempHigh: 35, Hysteresis: 1},

		ShutdownGrace: 5 * time.Second,
	}
}

func (c *Config) load(path string) error {
	log.Printf("hub: loading config file: %s", path)
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not open config file: %w", err)
	}
	if err = yaml.UnmarshalStrict(raw, c); err != nil {
		return fmt.Errorf("could not parse config file: %w", err)
	}
	return nil
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envList(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// applyEnv overrides c with whatever is set in the environment.
func (c *Config) applyEnv() {
	c.Port = env("PORT", c.Port)
	c.GRPCPort = env("GRPC_PORT", c.GRPCPort)
	c.HistorySize = envInt("HISTORY_SIZE", c.HistorySize)

	c.MQTT.Host = env("MQTT_HOST", c.MQTT.Host)
	c.MQTT.Port = envInt("MQTT_PORT", c.MQTT.Port)
	c.MQTT.User = env("MQTT_USER", c.MQTT.User)
	c.MQTT.Password = env("MQTT_PASSWORD", c.MQTT.Password)
	c.MQTT.ClientID = env("MQTT_CLIENT_ID", c.MQTT.ClientID)

	c.Influx.URL = env("INFLUX_URL", c.Influx.URL)
	c.Influx.Token = env("INFLUX_TOKEN", c.Influx.Token)
	c.Influx.Org = env("INFLUX_ORG", c.Influx.Org)
	c.Influx.Bucket = env("INFLUX_BUCKET", c.Influx.Bucket)
	c.Influx.DeviceID = env("DEVICE_ID", c.Influx.DeviceID)
	c.Influx.BatchSize = envInt("WRITE_BATCH_SIZE", c.Influx.BatchSize)
	c.Influx.FlushInterval = envInt("WRITE_FLUSH_INTERVAL_MS", c.Influx.FlushInterval)

	c.Mailgun.APIKey = env("MAILGUN_API_KEY", c.Mailgun.APIKey)
	c.Mailgun.Domain = env("MAILGUN_DOMAIN", c.Mailgun.Domain)
	c.Mailgun.Sender = env("MAILGUN_SENDER", c.Mailgun.Sender)
	c.Mailgun.Recipients = envList("ALERT_RECIPIENTS", c.Mailgun.Recipients)

	c.Alert.TempHigh = envFloat("ALERT_TEMP_HIGH", c.Alert.TempHigh)
	c.Alert.Hysteresis = envFloat("ALERT_HYSTERESIS", c.Alert.Hysteresis)
}

// mqttClientID makes the id unique per process so replicas don't kick each other off the broker.
func (c Config) mqttClientID() string {
	return c.MQTT.ClientID + "-" + uuid.NewString()[:8]
}
