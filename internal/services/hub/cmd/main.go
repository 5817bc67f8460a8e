package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/services/hub"
	"github.com/LeonardoBeccarini/esp32_smart_system/pkg/broker"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg := defaultConfig()
	if *configPath != "" {
		if err := cfg.load(*configPath); err != nil {
			log.Fatalf("hub: %v", err)
		}
	}
	cfg.applyEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === MQTT (optional) ===
	var mqttClient mqtt.Client
	if cfg.MQTT.Host != "" {
		c, err := broker.Connect(ctx, &broker.Config{
			Host:     cfg.MQTT.Host,
			Port:     cfg.MQTT.Port,
			User:     cfg.MQTT.User,
			Password: cfg.MQTT.Password,
			ClientID: cfg.mqttClientID(),
		})
		if err != nil {
			log.Fatalf("hub: mqtt connection error: %v", err)
		}
		mqttClient = c
	} else {
		log.Printf("hub: MQTT_HOST not set, bridge disabled")
	}

	// === InfluxDB (optional) ===
	var recorder *hub.Recorder
	if cfg.Influx.URL != "" {
		r, err := hub.NewRecorder(hub.InfluxConfig{
			URL:           cfg.Influx.URL,
			Token:         cfg.Influx.Token,
			Org:           cfg.Influx.Org,
			Bucket:        cfg.Influx.Bucket,
			DeviceID:      cfg.Influx.DeviceID,
			BatchSize:     uint(max(cfg.Influx.BatchSize, 1)),
			FlushInterval: time.Duration(cfg.Influx.FlushInterval) * time.Millisecond,
		})
		if err != nil {
			log.Fatalf("hub: influx: %v", err)
		}
		recorder = r
		defer recorder.Close()
	} else {
		log.Printf("hub: INFLUX_URL not set, history served from memory")
	}

	// === Alerts (optional) ===
	var alerter *hub.Alerter
	mg := hub.MailgunConfig{
		APIKey:     cfg.Mailgun.APIKey,
		Domain:     cfg.Mailgun.Domain,
		Sender:     cfg.Mailgun.Sender,
		Recipients: cfg.Mailgun.Recipients,
	}
	if mg.Enabled() {
		alerter = hub.NewAlerter(hub.NewMailgunNotifier(mg), cfg.Alert.TempHigh, cfg.Alert.Hysteresis)
		defer alerter.Wait()
		log.Printf("hub: temperature alerts above %.1f °C to %v", cfg.Alert.TempHigh, mg.Recipients)
	}

	h := hub.New(hub.Config{
		HistorySize: cfg.HistorySize,
		Recorder:    recorder,
		MQTT:        mqttClient,
		Alerter:     alerter,
	})

	if mqttClient != nil {
		bridge := hub.NewBridge(h.Store(), mqttClient, hub.DefaultTopics())
		go bridge.Start(ctx)
	}

	// === gRPC health (optional) ===
	if cfg.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			log.Fatalf("hub: grpc listen: %v", err)
		}
		go func() {
			if err := hub.ServeGRPCHealth(ctx, lis, h, 5*time.Second); err != nil {
				log.Printf("[Error] hub: grpc health server: %v", err)
			}
		}()
	}

	// === HTTP ===
	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("hub: HTTP listening on :%s", cfg.Port)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("hub: http server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("hub: shutting down...")

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	h.Stream().Close()
	h.Events().Close()
	if err := hs.Shutdown(shCtx); err != nil {
		log.Printf("hub: http shutdown: %v", err)
	}
}
