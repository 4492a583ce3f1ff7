package main

import (
	"bytes"
	"testing"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/meterd/internal/config"
	"github.com/miradorstack/meterd/internal/models"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.String(); got != version+"\n" {
		t.Fatalf("unexpected version output %q", got)
	}
}

func TestBuildAdjustment(t *testing.T) {
	req, err := buildAdjustment("-3.5", "system", "ops")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req != (models.AdjustmentRequest{Delta: -3.5, Type: models.AdjustmentSystem, OriginID: "ops"}) {
		t.Fatalf("unexpected request %+v", req)
	}

	for _, bad := range [][2]string{{"abc", "manual"}, {"NaN", "manual"}, {"1", "robot"}} {
		if _, err := buildAdjustment(bad[0], bad[1], ""); err == nil {
			t.Fatalf("expected error for %v", bad)
		}
	}
}

func TestMeterOptionsFromConfig(t *testing.T) {
	opts := meterOptions(config.MeterConfig{
		Min: 10, Max: 20, MaxAdjustment: 2,
		MinUpdateInterval: time.Second, FlushInterval: 250 * time.Millisecond,
		ManualHold: time.Second, OriginID: "kiosk",
	})
	if opts.Limits.Midpoint() != 15 || opts.Limits.MaxAdjustment != 2 || opts.OriginID != "kiosk" {
		t.Fatalf("unexpected options %+v", opts)
	}
	if opts.FluctuationInterval != 0 || opts.HistoryCapacity != 50 {
		t.Fatalf("unexpected defaults carried: %+v", opts)
	}
}

func TestStoreOptionsFromConfig(t *testing.T) {
	opts := storeOptions(config.StoreConfig{Backend: "redis", Redis: config.RedisConfig{Addr: "localhost:6379", Prefix: "m", DB: 2}})
	if opts.Backend != "redis" || opts.Redis.Addr != "localhost:6379" || opts.Redis.DB != 2 || opts.Redis.Prefix != "m" {
		t.Fatalf("unexpected store options %+v", opts)
	}
}

func TestPrintMessage(t *testing.T) {
	msg, _ := structpb.NewStruct(map[string]any{"value": 50.0})
	var out bytes.Buffer
	if err := printMessage(&out, msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte(`"value"`)) || !bytes.Contains(out.Bytes(), []byte("50")) {
		t.Fatalf("unexpected output %s", out.String())
	}
}
