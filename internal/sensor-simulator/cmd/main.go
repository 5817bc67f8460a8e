package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	sensorSimulator "github.com/LeonardoBeccarini/esp32_smart_system/internal/sensor-simulator"
	"github.com/LeonardoBeccarini/esp32_smart_system/pkg/broker"
)

func main() {
	// define flags
	server := flag.String("server", "http://localhost:5000", "hub base URL (HTTP mode)")
	mqttHost := flag.String("mqtt-host", "", "MQTT broker host; when set the simulator talks MQTT instead of HTTP")
	mqttPort := flag.Int("mqtt-port", 1883, "MQTT broker port")
	mqttUser := flag.String("mqtt-user", "", "MQTT user")
	mqttPassword := flag.String("mqtt-password", "", "MQTT password")
	updateTopic := flag.String("update-topic", "esp/update", "topic for sensor reports")
	controlTopic := flag.String("control-topic", "esp/control", "topic carrying the retained control state")
	interval := flag.Duration("interval", 2*time.Second, "report interval")
	timeout := flag.Duration("timeout", 5*time.Second, "HTTP request timeout")
	ambient := flag.Float64("ambient", 22.0, "ambient temperature in °C")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var transport sensorSimulator.Transport
	if *mqttHost != "" {
		client, err := broker.Connect(ctx, &broker.Config{
			Host:     *mqttHost,
			Port:     *mqttPort,
			User:     *mqttUser,
			Password: *mqttPassword,
			ClientID: "esp-sim-" + uuid.NewString()[:8],
		})
		if err != nil {
			log.Fatal(err)
		}
		mt := sensorSimulator.NewMQTTTransport(client, *updateTopic, *controlTopic)
		go mt.Listen(ctx)
		transport = mt
		log.Printf("sim: reporting over MQTT to %s:%d", *mqttHost, *mqttPort)
	} else {
		transport = sensorSimulator.NewHTTPTransport(*server, *timeout)
		log.Printf("sim: reporting over HTTP to %s", *server)
	}

	generator := sensorSimulator.NewDataGenerator(*ambient, *seed)
	simulatedBoard := sensorSimulator.NewSensorSimulator(transport, generator)
	simulatedBoard.Start(ctx, *interval)
}
