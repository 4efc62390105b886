package types

import (
	"fmt"
	"slices"

	"google.golang.org/grpc/encoding"
	grpcproto "google.golang.org/grpc/encoding/proto"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
)

// wireMessage is implemented by the hand-written RPC messages in this package.
// Their encoding is the proto3 binary form of the matching .proto message, so
// any protobuf client can call the services.
type wireMessage interface {
	marshalWire() []byte
	unmarshalWire(b []byte) error
}

// codec replaces the default "proto" codec. Messages from this package use
// their own wire encoding; generated messages (health checks, reflection) go
// through the protobuf runtime as before.
type codec struct{}

func (codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case wireMessage:
		return m.marshalWire(), nil
	case proto.Message:
		return proto.Marshal(m)
	default:
		return nil, fmt.Errorf("types: cannot marshal %T", v)
	}
}

func (codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case wireMessage:
		return m.unmarshalWire(data)
	case proto.Message:
		return proto.Unmarshal(data, m)
	default:
		return fmt.Errorf("types: cannot unmarshal into %T", v)
	}
}

func (codec) Name() string {
	return grpcproto.Name
}

func init() {
	encoding.RegisterCodec(codec{})
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

// appendStringMap writes a map<string, string> field. Entries are sorted by key
// so equal maps encode to equal bytes.
func appendStringMap(b []byte, num protowire.Number, m map[string]string) []byte {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		var entry []byte
		entry = protowire.AppendTag(entry, 1, protowire.BytesType)
		entry = protowire.AppendString(entry, k)
		entry = protowire.AppendTag(entry, 2, protowire.BytesType)
		entry = protowire.AppendString(entry, m[k])

		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	return b
}

// walkFields calls fn for every field in b. fn reports whether it knew the
// field and how many value bytes it consumed; unknown fields are skipped.
func walkFields(b []byte, fn func(num protowire.Number, typ protowire.Type, v []byte) (int, bool)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		m, ok := fn(num, typ, b)
		if !ok {
			m = protowire.ConsumeFieldValue(num, typ, b)
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}

func consumeString(typ protowire.Type, b []byte, dst *string) (int, bool) {
	if typ != protowire.BytesType {
		return 0, false
	}
	v, n := protowire.ConsumeBytes(b)
	if n >= 0 {
		*dst = string(v)
	}
	return n, true
}

func consumeBool(typ protowire.Type, b []byte, dst *bool) (int, bool) {
	if typ != protowire.VarintType {
		return 0, false
	}
	v, n := protowire.ConsumeVarint(b)
	if n >= 0 {
		*dst = protowire.DecodeBool(v)
	}
	return n, true
}

func consumeMapEntry(typ protowire.Type, b []byte, dst *map[string]string) (int, bool) {
	if typ != protowire.BytesType {
		return 0, false
	}
	entry, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n, true
	}

	var key, value string
	err := walkFields(entry, func(num protowire.Number, typ protowire.Type, v []byte) (int, bool) {
		switch num {
		case 1:
			return consumeString(typ, v, &key)
		case 2:
			return consumeString(typ, v, &value)
		}
		return 0, false
	})
	if err != nil {
		return -1, true
	}

	if *dst == nil {
		*dst = make(map[string]string)
	}
	(*dst)[key] = value
	return n, true
}
