package feedv1

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	_ "google.golang.org/protobuf/types/known/emptypb"
	_ "google.golang.org/protobuf/types/known/structpb"
	_ "google.golang.org/protobuf/types/known/wrapperspb"
)

// File_eventfeed_v1_feed_proto describes FeedService for server reflection.
var File_eventfeed_v1_feed_proto protoreflect.FileDescriptor

func feedFileProto() *descriptorpb.FileDescriptorProto {
	method := func(name, in, out string) *descriptorpb.MethodDescriptorProto {
		return &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(name),
			InputType:  proto.String(in),
			OutputType: proto.String(out),
		}
	}
	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String(FeedService_ServiceDesc.Metadata.(string)),
		Package: proto.String("eventfeed.v1"),
		Syntax:  proto.String("proto3"),
		Dependency: []string{
			"google/protobuf/empty.proto",
			"google/protobuf/struct.proto",
			"google/protobuf/wrappers.proto",
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("FeedService"),
			Method: []*descriptorpb.MethodDescriptorProto{
				method("Submit", ".google.protobuf.BytesValue", ".google.protobuf.Struct"),
				method("List", ".google.protobuf.Empty", ".google.protobuf.ListValue"),
				method("Stats", ".google.protobuf.Empty", ".google.protobuf.Struct"),
			},
		}},
		Options: &descriptorpb.FileOptions{
			GoPackage: proto.String("github.com/rzbill/eventfeed/api/eventfeed/v1;feedv1"),
		},
	}
}

func init() {
	fd, err := protodesc.NewFile(feedFileProto(), protoregistry.GlobalFiles)
	if err != nil {
		panic("feedv1: build descriptor: " + err.Error())
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic("feedv1: register descriptor: " + err.Error())
	}
	File_eventfeed_v1_feed_proto = fd
}
