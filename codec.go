package storagedata

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Codec converts values to and from the string form held by a Store.
// Decode receives a pointer to the destination value.
type Codec interface {
	Name() string
	Encode(v any) (string, error)
	Decode(s string, out any) error
}

// Format names a built-in codec.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
	FormatCBOR    Format = "cbor"
)

// DefaultFormat is used when no codec is configured.
const DefaultFormat = FormatJSON

// binaryEncoding wraps binary payloads so they survive string-only stores.
var binaryEncoding = base64.URLEncoding

var cborEncMode = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

// CodecFor returns the built-in codec for f.
func CodecFor(f Format) (Codec, error) {
	switch Format(strings.ToLower(string(f))) {
	case FormatJSON, "":
		return jsonCodec{}, nil
	case FormatYAML:
		return yamlCodec{}, nil
	case FormatMsgpack:
		return msgpackCodec{}, nil
	case FormatCBOR:
		return cborCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// UnmarshalText lets Format be used directly in env-tagged config structs.
func (f *Format) UnmarshalText(text []byte) error {
	if _, err := CodecFor(Format(text)); err != nil {
		return err
	}
	*f = Format(strings.ToLower(string(text)))
	return nil
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return string(FormatJSON) }

func (jsonCodec) Encode(v any) (string, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(body), nil
}

func (jsonCodec) Decode(s string, out any) error {
	if err := json.Unmarshal([]byte(s), out); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

type yamlCodec struct{}

func (yamlCodec) Name() string { return string(FormatYAML) }

func (yamlCodec) Encode(v any) (string, error) {
	body, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode yaml: %w", err)
	}
	return string(body), nil
}

func (yamlCodec) Decode(s string, out any) error {
	if err := yaml.Unmarshal([]byte(s), out); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string { return string(FormatMsgpack) }

func (msgpackCodec) Encode(v any) (string, error) {
	body, err := msgpack.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode msgpack: %w", err)
	}
	return binaryEncoding.EncodeToString(body), nil
}

func (msgpackCodec) Decode(s string, out any) error {
	body, err := binaryEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("decode msgpack payload: %w", err)
	}
	if err := msgpack.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode msgpack: %w", err)
	}
	return nil
}

type cborCodec struct{}

func (cborCodec) Name() string { return string(FormatCBOR) }

func (cborCodec) Encode(v any) (string, error) {
	body, err := cborEncMode.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode cbor: %w", err)
	}
	return binaryEncoding.EncodeToString(body), nil
}

func (cborCodec) Decode(s string, out any) error {
	body, err := binaryEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("decode cbor payload: %w", err)
	}
	if err := cbor.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode cbor: %w", err)
	}
	return nil
}

// CodecFuncs adapts a pair of functions to the Codec interface.
type CodecFuncs struct {
	CodecName  string
	EncodeFunc func(v any) (string, error)
	DecodeFunc func(s string, out any) error
}

func (c CodecFuncs) Name() string {
	if c.CodecName == "" {
		return "custom"
	}
	return c.CodecName
}

func (c CodecFuncs) Encode(v any) (string, error) {
	if c.EncodeFunc == nil {
		return "", fmt.Errorf("codec %s has no encoder", c.Name())
	}
	return c.EncodeFunc(v)
}

func (c CodecFuncs) Decode(s string, out any) error {
	if c.DecodeFunc == nil {
		return fmt.Errorf("codec %s has no decoder", c.Name())
	}
	return c.DecodeFunc(s, out)
}
