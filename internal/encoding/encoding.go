// Package encoding provides codecs for values that marshal to CBOR, optionally
// compressed with zstd.
package encoding

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	cbg "github.com/whyrusleeping/cbor-gen"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// maxDecompressedSize is the maximum amount of memory allocated by the zstd
// decoder. Journal entries are orders of magnitude smaller.
const maxDecompressedSize = 1 << 20

type CBORMarshalUnmarshaler interface {
	cbg.CBORMarshaler
	cbg.CBORUnmarshaler
}

// EncodeDecoder converts values to and from bytes.
type EncodeDecoder[T CBORMarshalUnmarshaler] interface {
	Encode(v T) ([]byte, error)
	Decode([]byte, T) error
}

type CBOR[T CBORMarshalUnmarshaler] struct{}

func NewCBOR[T CBORMarshalUnmarshaler]() *CBOR[T] {
	return &CBOR[T]{}
}

func (c *CBOR[T]) Encode(m T) (_ []byte, _err error) {
	defer func(start time.Time) {
		recordEncodingTime(start, attrCodecCbor, attrActionEncode, _err)
	}(time.Now())
	var buf bytes.Buffer
	if err := m.MarshalCBOR(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *CBOR[T]) Decode(v []byte, t T) (_err error) {
	defer func(start time.Time) {
		recordEncodingTime(start, attrCodecCbor, attrActionDecode, _err)
	}(time.Now())
	return t.UnmarshalCBOR(bytes.NewReader(v))
}

type ZSTD[T CBORMarshalUnmarshaler] struct {
	cborEncoding *CBOR[T]
	compressor   *zstd.Encoder
	decompressor *zstd.Decoder
}

func NewZSTD[T CBORMarshalUnmarshaler]() (*ZSTD[T], error) {
	writer, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	reader, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecompressedSize))
	if err != nil {
		return nil, err
	}
	return &ZSTD[T]{
		cborEncoding: &CBOR[T]{},
		compressor:   writer,
		decompressor: reader,
	}, nil
}

func (c *ZSTD[T]) Encode(m T) (_ []byte, _err error) {
	defer func(start time.Time) {
		recordEncodingTime(start, attrCodecZstd, attrActionEncode, _err)
	}(time.Now())
	cborEncoded, err := c.cborEncoding.Encode(m)
	if err != nil {
		return nil, err
	}
	if len(cborEncoded) > maxDecompressedSize {
		// Error out early if the encoded value is too large to be decompressed.
		return nil, fmt.Errorf("encoded value cannot exceed maximum size: %d > %d", len(cborEncoded), maxDecompressedSize)
	}
	compressed := c.compressor.EncodeAll(cborEncoded, make([]byte, 0, len(cborEncoded)))
	metrics.zstdCompressionRatio.Record(context.Background(), float64(len(compressed))/float64(max(1, len(cborEncoded))))
	return compressed, nil
}

func (c *ZSTD[T]) Decode(v []byte, t T) (_err error) {
	defer func(start time.Time) {
		recordEncodingTime(start, attrCodecZstd, attrActionDecode, _err)
	}(time.Now())
	cborEncoded, err := c.decompressor.DecodeAll(v, make([]byte, 0, len(v)))
	if err != nil {
		return err
	}
	return c.cborEncoding.Decode(cborEncoded, t)
}

func recordEncodingTime(start time.Time, codec, action attribute.KeyValue, err error) {
	metrics.encodingTime.Record(context.Background(), time.Since(start).Seconds(),
		metric.WithAttributes(codec, action, attrSuccessFromErr(err)))
}
