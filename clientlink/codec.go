// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package clientlink

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"

	gerrors "github.com/tochemey/gobam/errors"
	"github.com/tochemey/gobam/internal/compression"
)

// DefaultCompressionThreshold is the payload size from which payloads are compressed.
const DefaultCompressionThreshold = 4 * 1024

// ErrUnsupportedPayload is returned when a payload has no wire encoding.
var ErrUnsupportedPayload = errors.New("unsupported payload type")

// ErrMalformedFrame is returned when bytes do not decode into a Frame.
var ErrMalformedFrame = errors.New("malformed frame")

// frame field numbers
const (
	fieldKind protowire.Number = iota + 1
	fieldID
	fieldTo
	fieldFrom
	fieldEncoding
	fieldCompression
	fieldPayload
	fieldErrType
	fieldErrCondition
	fieldErrText
)

// payload encodings
const (
	encodingNone uint64 = iota
	encodingBytes
	encodingString
	encodingProto
)

// Codec turns frames into protobuf wire bytes and back. Payloads may be nil,
// []byte, string or a proto.Message; proto messages travel as anypb.Any.
type Codec struct {
	algorithm      compression.Algorithm
	threshold      int
	maxPayloadSize int
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithCompression compresses payloads of at least threshold bytes with algorithm.
func WithCompression(algorithm compression.Algorithm, threshold int) CodecOption {
	return func(c *Codec) {
		c.algorithm = algorithm
		if threshold > 0 {
			c.threshold = threshold
		}
	}
}

// WithMaxPayloadSize bounds the size of a decompressed inbound payload.
// The default is DefaultMaxFrameSize.
func WithMaxPayloadSize(size int) CodecOption {
	return func(c *Codec) {
		if size > 0 {
			c.maxPayloadSize = size
		}
	}
}

// NewCodec creates a Codec. Compression is off unless WithCompression is given.
func NewCodec(opts ...CodecOption) *Codec {
	codec := &Codec{
		algorithm:      compression.None,
		threshold:      DefaultCompressionThreshold,
		maxPayloadSize: DefaultMaxFrameSize,
	}
	for _, opt := range opts {
		opt(codec)
	}
	return codec
}

// withMaxPayloadSize returns a copy of c bounded to size.
func (c *Codec) withMaxPayloadSize(size int) *Codec {
	codec := *c
	WithMaxPayloadSize(size)(&codec)
	return &codec
}

// Encode serializes frame.
func (c *Codec) Encode(frame *Frame) ([]byte, error) {
	encoding, payload, err := encodePayload(frame.Payload)
	if err != nil {
		return nil, err
	}

	algorithm := compression.None
	if c.algorithm != compression.None && len(payload) >= c.threshold {
		if payload, err = compression.Compress(c.algorithm, payload); err != nil {
			return nil, fmt.Errorf("failed to compress %s payload: %w", frame.Kind, err)
		}
		algorithm = c.algorithm
	}

	b := make([]byte, 0, 32+len(frame.To)+len(frame.From)+len(payload))
	b = appendVarint(b, fieldKind, uint64(frame.Kind))
	b = appendVarint(b, fieldID, frame.ID)
	b = appendString(b, fieldTo, frame.To)
	b = appendString(b, fieldFrom, frame.From)
	b = appendVarint(b, fieldEncoding, encoding)
	b = appendVarint(b, fieldCompression, uint64(algorithm))
	if len(payload) > 0 {
		b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, payload)
	}
	if frame.Err != nil {
		b = appendString(b, fieldErrType, string(frame.Err.Type))
		b = appendString(b, fieldErrCondition, string(frame.Err.Condition))
		b = appendString(b, fieldErrText, frame.Err.Text)
	}
	return b, nil
}

// Decode parses bytes produced by Encode.
func (c *Codec) Decode(b []byte) (*Frame, error) {
	frame := new(Frame)
	var (
		encoding  uint64
		algorithm compression.Algorithm
		payload   []byte
		actorErr  gerrors.ActorError
		hasErr    bool
	)

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %w", ErrMalformedFrame, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: %w", ErrMalformedFrame, protowire.ParseError(n))
			}
			b = b[n:]
			switch num {
			case fieldKind:
				frame.Kind = Kind(v)
			case fieldID:
				frame.ID = v
			case fieldEncoding:
				encoding = v
			case fieldCompression:
				algorithm = compression.Algorithm(v)
			}
		case typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: %w", ErrMalformedFrame, protowire.ParseError(n))
			}
			b = b[n:]
			switch num {
			case fieldTo:
				frame.To = string(v)
			case fieldFrom:
				frame.From = string(v)
			case fieldPayload:
				payload = v
			case fieldErrType:
				actorErr.Type, hasErr = gerrors.Type(v), true
			case fieldErrCondition:
				actorErr.Condition, hasErr = gerrors.Condition(v), true
			case fieldErrText:
				actorErr.Text, hasErr = string(v), true
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("%w: %w", ErrMalformedFrame, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	if frame.Kind < KindMessage || frame.Kind > KindQueryError {
		return nil, fmt.Errorf("%w: unknown kind %d", ErrMalformedFrame, frame.Kind)
	}

	payload, err := compression.Decompress(algorithm, payload, c.maxPayloadSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}

	if frame.Payload, err = decodePayload(encoding, payload); err != nil {
		return nil, err
	}

	if hasErr {
		frame.Err = &actorErr
	}
	return frame, nil
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func encodePayload(payload any) (uint64, []byte, error) {
	switch p := payload.(type) {
	case nil:
		return encodingNone, nil, nil
	case []byte:
		return encodingBytes, p, nil
	case string:
		return encodingString, []byte(p), nil
	case proto.Message:
		packed, err := anypb.New(p)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to pack %T: %w", payload, err)
		}
		bytea, err := proto.Marshal(packed)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal %T: %w", payload, err)
		}
		return encodingProto, bytea, nil
	default:
		return 0, nil, fmt.Errorf("%w: %T", ErrUnsupportedPayload, payload)
	}
}

func decodePayload(encoding uint64, payload []byte) (any, error) {
	switch encoding {
	case encodingNone:
		return nil, nil
	case encodingBytes:
		if payload == nil {
			return []byte{}, nil
		}
		return payload, nil
	case encodingString:
		return string(payload), nil
	case encodingProto:
		packed := new(anypb.Any)
		if err := proto.Unmarshal(payload, packed); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
		}
		message, err := packed.UnmarshalNew()
		if err != nil {
			// unknown message types are handed over packed
			return packed, nil
		}
		return message, nil
	default:
		return nil, fmt.Errorf("%w: unknown payload encoding %d", ErrMalformedFrame, encoding)
	}
}
