package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/services/dashboard"
)

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	server := flag.String("server", env("HUB_URL", "http://localhost:5000"), "hub base URL")
	interval := flag.Duration("interval", 0, "refresh interval (0 = refresh once)")
	set := flag.String("set", "", `control update, e.g. "led=on,analog_output=120,fan=off,fan_speed=30"`)
	follow := flag.Bool("follow", false, "follow the hub websocket stream")
	probe := flag.String("probe", "", "gRPC health address to check (host:port)")
	service := flag.String("service", "esp.Hub", "service name for -probe")
	timeout := flag.Duration("timeout", 5*time.Second, "per-request timeout")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *probe != "" {
		pctx, cancel := context.WithTimeout(ctx, *timeout)
		defer cancel()
		res, err := dashboard.Probe(pctx, *probe, *service)
		if err != nil {
			log.Fatalf("dashboard: %v", err)
		}
		fmt.Println(protojson.Format(res))
		if res.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			os.Exit(1)
		}
		return
	}

	client := dashboard.NewClient(*server, *timeout, dashboard.DefaultBreakerSettings())

	if *set != "" {
		cur, err := client.Control(ctx)
		if err != nil {
			log.Printf("dashboard: could not read current control, starting from zero: %v", err)
		}
		next, err := dashboard.ParseSet(*set, cur)
		if err != nil {
			log.Fatalf("dashboard: %v", err)
		}
		msg, err := client.Update(ctx, next)
		fmt.Println(msg)
		if err != nil {
			os.Exit(1)
		}
		return
	}

	if *follow {
		err := dashboard.Follow(ctx, client.BaseURL(), func(st dashboard.Status) {
			fmt.Print("\033[H\033[2J")
			_ = dashboard.Render(os.Stdout, st)
		})
		if err != nil {
			log.Fatalf("dashboard: %v", err)
		}
		return
	}

	refresh := func() {
		rctx, cancel := context.WithTimeout(ctx, *timeout)
		defer cancel()
		_ = dashboard.Render(os.Stdout, client.Refresh(rctx))
	}

	refresh()
	if *interval <= 0 {
		return
	}
	t := time.NewTicker(*interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fmt.Println()
			refresh()
		}
	}
}
