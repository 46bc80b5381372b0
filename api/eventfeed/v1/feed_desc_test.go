package feedv1

import (
	"testing"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
)

func TestFeedServiceDescriptorRegistered(t *testing.T) {
	d, err := protoregistry.GlobalFiles.FindDescriptorByName(ServiceName)
	if err != nil {
		t.Fatalf("find %s: %v", ServiceName, err)
	}
	sd, ok := d.(protoreflect.ServiceDescriptor)
	if !ok {
		t.Fatalf("expected service descriptor, got %T", d)
	}
	if got := sd.ParentFile().Path(); got != FeedService_ServiceDesc.Metadata {
		t.Fatalf("file path %q, want %q", got, FeedService_ServiceDesc.Metadata)
	}

	want := map[string][2]protoreflect.FullName{
		"Submit": {"google.protobuf.BytesValue", "google.protobuf.Struct"},
		"List":   {"google.protobuf.Empty", "google.protobuf.ListValue"},
		"Stats":  {"google.protobuf.Empty", "google.protobuf.Struct"},
	}
	if sd.Methods().Len() != len(want) {
		t.Fatalf("expected %d methods, got %d", len(want), sd.Methods().Len())
	}
	for _, m := range FeedService_ServiceDesc.Methods {
		md := sd.Methods().ByName(protoreflect.Name(m.MethodName))
		if md == nil {
			t.Fatalf("method %s missing from descriptor", m.MethodName)
		}
		io := want[m.MethodName]
		if md.Input().FullName() != io[0] || md.Output().FullName() != io[1] {
			t.Fatalf("%s: %s -> %s", m.MethodName, md.Input().FullName(), md.Output().FullName())
		}
	}
}
