package meterv1

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	_ "google.golang.org/protobuf/types/known/emptypb"
	_ "google.golang.org/protobuf/types/known/structpb"
	_ "google.golang.org/protobuf/types/known/wrapperspb"
)

// File_meterui_v1_meter_proto describes meterui/v1/meter.proto. It is
// registered in protoregistry.GlobalFiles so server reflection can resolve
// MeterService.
var File_meterui_v1_meter_proto protoreflect.FileDescriptor

func init() {
	fd, err := buildFileDescriptor()
	if err != nil {
		panic(fmt.Sprintf("meterv1: %v", err))
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(fmt.Sprintf("meterv1: register %s: %v", fd.Path(), err))
	}
	File_meterui_v1_meter_proto = fd
}

func buildFileDescriptor() (protoreflect.FileDescriptor, error) {
	method := func(name, in, out string) *descriptorpb.MethodDescriptorProto {
		return &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(name),
			InputType:  proto.String(in),
			OutputType: proto.String(out),
		}
	}
	const (
		empty = ".google.protobuf.Empty"
		strct = ".google.protobuf.Struct"
		boolv = ".google.protobuf.BoolValue"
	)

	file := &descriptorpb.FileDescriptorProto{
		Name:    proto.String(MeterService_ServiceDesc.Metadata.(string)),
		Package: proto.String("meterui.v1"),
		Dependency: []string{
			"google/protobuf/empty.proto",
			"google/protobuf/struct.proto",
			"google/protobuf/wrappers.proto",
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("MeterService"),
			Method: []*descriptorpb.MethodDescriptorProto{
				method("GetState", empty, strct),
				method("Adjust", strct, strct),
				method("SetAdjusting", boolv, strct),
				method("ToggleTheme", empty, strct),
			},
		}},
		Options: &descriptorpb.FileOptions{
			GoPackage: proto.String("github.com/miradorstack/meterd/internal/grpc/meterv1"),
		},
		Syntax: proto.String("proto3"),
	}
	return protodesc.NewFile(file, protoregistry.GlobalFiles)
}
