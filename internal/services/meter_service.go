package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/miradorstack/meterd/internal/api"
	"github.com/miradorstack/meterd/internal/grpc/meterv1"
	"github.com/miradorstack/meterd/internal/meter"
	"github.com/miradorstack/meterd/internal/metrics"
	"github.com/miradorstack/meterd/internal/models"
	"github.com/miradorstack/meterd/internal/utils"
)

// MeterController is the slice of the meter manager the service drives.
type MeterController interface {
	Snapshot() models.Snapshot
	Submit(req models.AdjustmentRequest) error
	SetAdjusting(adjusting bool)
}

// ThemeController toggles the persisted theme preference.
type ThemeController interface {
	State() models.ThemeState
	Toggle(ctx context.Context) models.ThemeState
}

// MeterService implements the gRPC MeterService.
type MeterService struct {
	meterv1.UnimplementedMeterServiceServer

	logger    *slog.Logger
	meter     MeterController
	theme     ThemeController
	latencies *utils.LatencyTracker
}

// NewMeterService constructs the service facade.
func NewMeterService(logger *slog.Logger, meter MeterController, theme ThemeController) *MeterService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MeterService{
		logger:    logger,
		meter:     meter,
		theme:     theme,
		latencies: utils.NewLatencyTracker(1024),
	}
}

// GetState returns the current meter snapshot.
func (s *MeterService) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if s.meter == nil {
		return nil, status.Error(codes.FailedPrecondition, "meter not configured")
	}
	return s.snapshot()
}

// Adjust validates and queues an adjustment, returning the resulting snapshot.
func (s *MeterService) Adjust(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	if s.meter == nil {
		return nil, status.Error(codes.FailedPrecondition, "meter not configured")
	}

	adj, err := api.FromProtoAdjustment(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	s.logger.Debug("Adjust called", slog.Float64("delta", adj.Delta), slog.String("type", string(adj.Type)), slog.String("origin_id", adj.OriginID))

	start := time.Now()
	err = s.meter.Submit(adj)
	s.latencies.Observe(time.Since(start))
	metrics.SetAdjustLatencyP95(s.latencies.Percentile(95))
	if err != nil {
		if errors.Is(err, meter.ErrAdjustmentTooLarge) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		s.logger.Error("adjustment failed", slog.Any("error", err))
		return nil, status.Error(codes.Internal, err.Error())
	}
	return s.snapshot()
}

// SetAdjusting raises or lowers the manual interaction flag.
func (s *MeterService) SetAdjusting(ctx context.Context, req *wrapperspb.BoolValue) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	if s.meter == nil {
		return nil, status.Error(codes.FailedPrecondition, "meter not configured")
	}
	s.meter.SetAdjusting(req.GetValue())
	return s.snapshot()
}

// ToggleTheme flips and persists the theme preference.
func (s *MeterService) ToggleTheme(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if s.theme == nil {
		return nil, status.Error(codes.FailedPrecondition, "theme preferences not configured")
	}
	state := s.theme.Toggle(ctx)
	s.logger.Info("theme toggled", slog.String("mode", string(state.Mode)))

	out, err := api.ToProtoTheme(state)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *MeterService) snapshot() (*structpb.Struct, error) {
	out, err := api.ToProtoSnapshot(s.meter.Snapshot())
	if err != nil {
		s.logger.Error("encode snapshot failed", slog.Any("error", err))
		return nil, status.Error(codes.Internal, "encode snapshot")
	}
	return out, nil
}
