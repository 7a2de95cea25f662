package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validYAML = `
environment: test
server:
  port: 8080
sources:
  base_url: http://sources.local
  alerts_paths: ["/api/alerts"]
  notifications_paths: ["/api/notifications"]
  compliance_paths: ["/api/compliance/checks"]
  audit_paths: ["/api/audit"]
  anomalies_paths: ["/api/anomalies", "/api/v2/anomalies"]
  latency_paths: ["/api/execution/latency"]
  impact_paths: ["/api/execution/impact"]
live:
  stream_url: ws://sources.local/live
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Live.PollInterval != 3*time.Second {
		t.Errorf("PollInterval = %v, want 3s", cfg.Live.PollInterval)
	}
	if cfg.Live.PollLimit != 50 {
		t.Errorf("PollLimit = %d, want 50", cfg.Live.PollLimit)
	}
	if cfg.Live.Capacity != 200 {
		t.Errorf("live capacity = %d, want 200", cfg.Live.Capacity)
	}
	if cfg.Feed.Capacity != 50 {
		t.Errorf("feed capacity = %d, want 50", cfg.Feed.Capacity)
	}
	if cfg.Fusion.Threshold != 0.25 {
		t.Errorf("threshold = %v, want 0.25", cfg.Fusion.Threshold)
	}
	if cfg.History.Capacity != 20 {
		t.Errorf("history capacity = %d, want 20", cfg.History.Capacity)
	}
	if cfg.Refresh.FeedInterval != 5*time.Second {
		t.Errorf("feed interval = %v, want 5s", cfg.Refresh.FeedInterval)
	}
}

func TestLoadExplicitValuesWin(t *testing.T) {
	yaml := validYAML + `
feed:
  capacity: 100
fusion:
  threshold: 0.4
`
	cfg, err := Load(writeConfig(t, yaml))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Feed.Capacity != 100 {
		t.Errorf("feed capacity = %d, want 100", cfg.Feed.Capacity)
	}
	if cfg.Fusion.Threshold != 0.4 {
		t.Errorf("threshold = %v, want 0.4", cfg.Fusion.Threshold)
	}
}

func TestLoadRejectsMissingRequirements(t *testing.T) {
	cases := map[string]string{
		"missing environment": `
sources:
  base_url: http://sources.local
  alerts_paths: ["/a"]
  notifications_paths: ["/n"]
  compliance_paths: ["/c"]
  audit_paths: ["/u"]
  anomalies_paths: ["/x"]
  latency_paths: ["/l"]
  impact_paths: ["/i"]
`,
		"missing base url": `
environment: test
sources:
  alerts_paths: ["/a"]
  notifications_paths: ["/n"]
  compliance_paths: ["/c"]
  audit_paths: ["/u"]
  anomalies_paths: ["/x"]
  latency_paths: ["/l"]
  impact_paths: ["/i"]
`,
		"empty path list": `
environment: test
sources:
  base_url: http://sources.local
  alerts_paths: []
  notifications_paths: ["/n"]
  compliance_paths: ["/c"]
  audit_paths: ["/u"]
  anomalies_paths: ["/x"]
  latency_paths: ["/l"]
  impact_paths: ["/i"]
`,
		"kafka enabled without brokers": validYAML + `
kafka:
  enabled: true
`,
	}
	for name, yaml := range cases {
		if _, err := Load(writeConfig(t, yaml)); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("SOURCES_BASE_URL", "http://override.local")
	t.Setenv("LIVE_STREAM_URL", "ws://override.local/live")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := LoadWithEnv(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if cfg.Sources.BaseURL != "http://override.local" {
		t.Errorf("BaseURL = %q, want env override", cfg.Sources.BaseURL)
	}
	if cfg.Live.StreamURL != "ws://override.local/live" {
		t.Errorf("StreamURL = %q, want env override", cfg.Live.StreamURL)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "k1:9092" {
		t.Errorf("Brokers = %v, want split env list", cfg.Kafka.Brokers)
	}
}
