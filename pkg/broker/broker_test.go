package broker

import "testing"

func TestQoSFor(t *testing.T) {
	cases := map[string]byte{
		"esp/control/set": 1,
		"esp/control":     1,
		"esp/update":      0,
		"esp/data":        0,
		" esp/control ":   1,
	}
	for topic, want := range cases {
		if got := QoSFor(topic); got != want {
			t.Errorf("QoSFor(%q) = %d, want %d", topic, got, want)
		}
	}
}

func TestConfigAddr(t *testing.T) {
	cfg := &Config{Host: "broker.local", Port: 1883}
	if got := cfg.Addr(); got != "tcp://broker.local:1883" {
		t.Errorf("Addr() = %q", got)
	}
}
