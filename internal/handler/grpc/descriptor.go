package grpc

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// guard/v1/guard.proto
//
//	service GuardService {
//	  rpc CheckTransaction(CheckTransactionRequest) returns (CheckTransactionResponse);
//	  rpc CheckAfterExecution(CheckAfterExecutionRequest) returns (CheckAfterExecutionResponse);
//	}
const protoFile = "guard/v1/guard.proto"

func field(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
}

func message(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{Name: proto.String(name), Field: fields}
}

func method(name string) *descriptorpb.MethodDescriptorProto {
	return &descriptorpb.MethodDescriptorProto{
		Name:       proto.String(name),
		InputType:  proto.String(".guard.v1." + name + "Request"),
		OutputType: proto.String(".guard.v1." + name + "Response"),
	}
}

var guardProto = &descriptorpb.FileDescriptorProto{
	Name:    proto.String(protoFile),
	Package: proto.String("guard.v1"),
	Syntax:  proto.String("proto3"),
	MessageType: []*descriptorpb.DescriptorProto{
		message("CheckTransactionRequest",
			field("fingerprint", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING)),
		message("CheckTransactionResponse",
			field("allowed", 1, descriptorpb.FieldDescriptorProto_TYPE_BOOL),
			field("code", 2, descriptorpb.FieldDescriptorProto_TYPE_INT32),
			field("message", 3, descriptorpb.FieldDescriptorProto_TYPE_STRING)),
		message("CheckAfterExecutionRequest",
			field("fingerprint", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
			field("success", 2, descriptorpb.FieldDescriptorProto_TYPE_BOOL)),
		message("CheckAfterExecutionResponse"),
	},
	Service: []*descriptorpb.ServiceDescriptorProto{{
		Name:   proto.String("GuardService"),
		Method: []*descriptorpb.MethodDescriptorProto{method("CheckTransaction"), method("CheckAfterExecution")},
	}},
}

var (
	checkTransactionRequestDesc     protoreflect.MessageDescriptor
	checkTransactionResponseDesc    protoreflect.MessageDescriptor
	checkAfterExecutionRequestDesc  protoreflect.MessageDescriptor
	checkAfterExecutionResponseDesc protoreflect.MessageDescriptor
)

// 描述符注册到全局 registry, gRPC reflection (grpcurl) 可直接解析
func init() {
	fd, err := protodesc.NewFile(guardProto, nil)
	if err != nil {
		panic("grpc: build " + protoFile + ": " + err.Error())
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic("grpc: register " + protoFile + ": " + err.Error())
	}

	msgs := fd.Messages()
	checkTransactionRequestDesc = msgs.ByName("CheckTransactionRequest")
	checkTransactionResponseDesc = msgs.ByName("CheckTransactionResponse")
	checkAfterExecutionRequestDesc = msgs.ByName("CheckAfterExecutionRequest")
	checkAfterExecutionResponseDesc = msgs.ByName("CheckAfterExecutionResponse")
}

func get(m protoreflect.Message, name protoreflect.Name) protoreflect.Value {
	return m.Get(m.Descriptor().Fields().ByName(name))
}

func set(m *dynamicpb.Message, name protoreflect.Name, v protoreflect.Value) {
	m.Set(m.Descriptor().Fields().ByName(name), v)
}

func (r *CheckTransactionRequest) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(checkTransactionRequestDesc)
	set(m, "fingerprint", protoreflect.ValueOfString(r.Fingerprint))
	return m
}

func checkTransactionRequestFrom(m protoreflect.Message) *CheckTransactionRequest {
	return &CheckTransactionRequest{Fingerprint: get(m, "fingerprint").String()}
}

func (r *CheckTransactionResponse) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(checkTransactionResponseDesc)
	set(m, "allowed", protoreflect.ValueOfBool(r.Allowed))
	set(m, "code", protoreflect.ValueOfInt32(int32(r.Code)))
	set(m, "message", protoreflect.ValueOfString(r.Message))
	return m
}

func checkTransactionResponseFrom(m protoreflect.Message) *CheckTransactionResponse {
	return &CheckTransactionResponse{
		Allowed: get(m, "allowed").Bool(),
		Code:    int(get(m, "code").Int()),
		Message: get(m, "message").String(),
	}
}

func (r *CheckAfterExecutionRequest) toProto() *dynamicpb.Message {
	m := dynamicpb.NewMessage(checkAfterExecutionRequestDesc)
	set(m, "fingerprint", protoreflect.ValueOfString(r.Fingerprint))
	set(m, "success", protoreflect.ValueOfBool(r.Success))
	return m
}

func checkAfterExecutionRequestFrom(m protoreflect.Message) *CheckAfterExecutionRequest {
	return &CheckAfterExecutionRequest{
		Fingerprint: get(m, "fingerprint").String(),
		Success:     get(m, "success").Bool(),
	}
}

func (r *CheckAfterExecutionResponse) toProto() *dynamicpb.Message {
	return dynamicpb.NewMessage(checkAfterExecutionResponseDesc)
}
