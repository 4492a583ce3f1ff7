package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/miradorstack/meterd/internal/api"
	"github.com/miradorstack/meterd/internal/grpc/meterv1"
	"github.com/miradorstack/meterd/internal/models"
)

type clientFlags struct {
	addr    string
	timeout time.Duration
}

func (f *clientFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.addr, "addr", "localhost:50051", "meterd gRPC address")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 5*time.Second, "Request timeout")
}

// call dials meterd, runs fn and prints its response as JSON.
func (f *clientFlags) call(cmd *cobra.Command, fn func(context.Context, meterv1.MeterServiceClient) (proto.Message, error)) error {
	conn, err := grpc.NewClient(f.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.addr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
	defer cancel()

	resp, err := fn(ctx, meterv1.NewMeterServiceClient(conn))
	if err != nil {
		return err
	}
	return printMessage(cmd.OutOrStdout(), resp)
}

func printMessage(w io.Writer, msg proto.Message) error {
	out, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func newStateCommand() *cobra.Command {
	var flags clientFlags
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print the current meter snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.call(cmd, func(ctx context.Context, c meterv1.MeterServiceClient) (proto.Message, error) {
				return c.GetState(ctx, &emptypb.Empty{})
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func newAdjustCommand() *cobra.Command {
	var (
		flags    clientFlags
		typ      string
		originID string
	)
	cmd := &cobra.Command{
		Use:   "adjust <delta>",
		Short: "Request a meter adjustment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildAdjustment(args[0], typ, originID)
			if err != nil {
				return err
			}
			payload, err := api.ToProtoAdjustment(req)
			if err != nil {
				return err
			}
			return flags.call(cmd, func(ctx context.Context, c meterv1.MeterServiceClient) (proto.Message, error) {
				return c.Adjust(ctx, payload)
			})
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&typ, "type", string(models.AdjustmentManual), "Adjustment type: manual, auto or system")
	cmd.Flags().StringVar(&originID, "origin", "", "Origin identifier recorded with the event")
	return cmd
}

func newThemeCommand() *cobra.Command {
	theme := &cobra.Command{
		Use:   "theme",
		Short: "Manage the theme preference",
	}

	var flags clientFlags
	toggle := &cobra.Command{
		Use:   "toggle",
		Short: "Flip between light and dark",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.call(cmd, func(ctx context.Context, c meterv1.MeterServiceClient) (proto.Message, error) {
				return c.ToggleTheme(ctx, &emptypb.Empty{})
			})
		},
	}
	flags.bind(toggle)
	theme.AddCommand(toggle)
	return theme
}

func buildAdjustment(rawDelta, typ, originID string) (models.AdjustmentRequest, error) {
	delta, err := strconv.ParseFloat(rawDelta, 64)
	if err != nil || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return models.AdjustmentRequest{}, fmt.Errorf("invalid delta %q", rawDelta)
	}
	adjType, err := models.ParseAdjustmentType(typ)
	if err != nil {
		return models.AdjustmentRequest{}, err
	}
	return models.AdjustmentRequest{Delta: delta, Type: adjType, OriginID: originID}, nil
}
