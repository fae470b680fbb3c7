package rpc

import "fmt"

// Payload is a JSON document passed through the RPC layer untouched. The
// gateway decodes it itself so malformed bodies still get a well-formed
// failure response instead of a transport error.
type Payload struct {
	JSON []byte
}

// rawJSONCodec replaces connect's protojson codec for application/json.
type rawJSONCodec struct{}

func (rawJSONCodec) Name() string { return "json" }

func (rawJSONCodec) Marshal(v any) ([]byte, error) {
	p, ok := v.(*Payload)
	if !ok {
		return nil, fmt.Errorf("raw json codec: unexpected message type %T", v)
	}
	if len(p.JSON) == 0 {
		return []byte("{}"), nil
	}
	return p.JSON, nil
}

func (rawJSONCodec) Unmarshal(data []byte, v any) error {
	p, ok := v.(*Payload)
	if !ok {
		return fmt.Errorf("raw json codec: unexpected message type %T", v)
	}
	p.JSON = append([]byte(nil), data...)
	return nil
}
