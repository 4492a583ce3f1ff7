package api

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc/test/bufconn"

	"github.com/miradorstack/meterd/internal/config"
	"github.com/miradorstack/meterd/internal/grpc/meterv1"
)

func TestServerGracefulTimeout(t *testing.T) {
	tests := []struct {
		name string
		cfg  time.Duration
		want time.Duration
	}{
		{name: "configured", cfg: 3 * time.Second, want: 3 * time.Second},
		{name: "unset", cfg: 0, want: defaultGracefulTimeout},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := NewServerWithListener(config.ServerConfig{GracefulTimeout: tc.cfg}, bufconn.Listen(1024), meterv1.UnimplementedMeterServiceServer{})
			t.Cleanup(func() { srv.Shutdown(context.Background()) })
			if got := srv.GracefulTimeout(); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
