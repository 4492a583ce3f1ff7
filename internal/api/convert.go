package api

import (
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/meterd/internal/models"
)

// ToProtoSnapshot converts a meter snapshot into its gRPC representation.
func ToProtoSnapshot(s models.Snapshot) (*structpb.Struct, error) {
	history := make([]any, 0, len(s.History))
	for _, event := range s.History {
		history = append(history, map[string]any{
			"id":        event.ID,
			"value":     event.Value,
			"timestamp": event.Timestamp.UTC().Format(time.RFC3339Nano),
			"origin_id": event.OriginID,
			"type":      string(event.Type),
			"delta":     event.Delta,
		})
	}

	var errValue any
	if s.Error != "" {
		errValue = s.Error
	}

	return structpb.NewStruct(map[string]any{
		"value":   s.Value,
		"history": history,
		"analytics": map[string]any{
			"average":     s.Analytics.Average,
			"min":         s.Analytics.Min,
			"max":         s.Analytics.Max,
			"trend":       string(s.Analytics.Trend),
			"change_rate": s.Analytics.ChangeRate,
		},
		"error":     errValue,
		"adjusting": s.Adjusting,
		"pending":   s.Pending,
	})
}

// FromProtoAdjustment maps an Adjust request payload into a domain request.
func FromProtoAdjustment(req *structpb.Struct) (models.AdjustmentRequest, error) {
	if req == nil {
		return models.AdjustmentRequest{}, errors.New("request is nil")
	}
	fields := req.GetFields()

	raw, ok := fields["delta"]
	if !ok {
		return models.AdjustmentRequest{}, errors.New("delta is required")
	}
	number, ok := raw.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return models.AdjustmentRequest{}, errors.New("delta must be a number")
	}
	delta := number.NumberValue
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return models.AdjustmentRequest{}, errors.New("delta must be finite")
	}

	typ, err := models.ParseAdjustmentType(fields["type"].GetStringValue())
	if err != nil {
		return models.AdjustmentRequest{}, err
	}

	return models.AdjustmentRequest{
		Delta:    delta,
		Type:     typ,
		OriginID: fields["origin_id"].GetStringValue(),
	}, nil
}

// ToProtoAdjustment builds an Adjust request payload; used by clients.
func ToProtoAdjustment(req models.AdjustmentRequest) (*structpb.Struct, error) {
	fields := map[string]any{"delta": req.Delta}
	if req.Type != "" {
		fields["type"] = string(req.Type)
	}
	if req.OriginID != "" {
		fields["origin_id"] = req.OriginID
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode adjustment: %w", err)
	}
	return s, nil
}

// ToProtoTheme converts the theme state.
func ToProtoTheme(state models.ThemeState) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"mode":     string(state.Mode),
		"explicit": state.Explicit,
	})
}
