package encoding

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxVarStringLen bounds the length a var-string/var-bytes field is allowed
// to declare before we believe it and allocate. A remote peer that claims a
// longer string gets InvalidData instead of an OOM.
const MaxVarStringLen = 1 << 20 // 1 MiB

// MaxMessageSize bounds the payload length accepted from a single frame
// header, applied by the message layer before the reactor reads the payload.
const MaxMessageSize = 32 << 20 // 32 MiB

func PutUint16BE(buf []byte, v uint16) {
	binary.BigEndian.PutUint16(buf, v)
}

func PutUint32LE(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}

func PutUint64LE(buf []byte, v uint64) {
	binary.LittleEndian.PutUint64(buf, v)
}

func PutInt32LE(buf []byte, v int32) {
	binary.LittleEndian.PutUint32(buf, uint32(v))
}

func PutInt64LE(buf []byte, v int64) {
	binary.LittleEndian.PutUint64(buf, uint64(v))
}

func ReadUint16BE(r io.Reader) (uint16, error) {
	buf := make([]byte, 2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, fmt.Errorf("read uint16 - %w", err)
	}
	return binary.BigEndian.Uint16(buf), nil
}

func ReadUint32LE(r io.Reader) (uint32, error) {
	buf := make([]byte, 4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, fmt.Errorf("read uint32 - %w", err)
	}
	return binary.LittleEndian.Uint32(buf), nil
}

func ReadUint64LE(r io.Reader) (uint64, error) {
	buf := make([]byte, 8)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, fmt.Errorf("read uint64 - %w", err)
	}
	return binary.LittleEndian.Uint64(buf), nil
}

func ReadInt32LE(r io.Reader) (int32, error) {
	v, err := ReadUint32LE(r)
	return int32(v), err
}

func ReadInt64LE(r io.Reader) (int64, error) {
	v, err := ReadUint64LE(r)
	return int64(v), err
}

// ReadVarBytes reads a var-int length prefix followed by that many raw
// bytes, rejecting lengths beyond MaxVarStringLen with InvalidData rather
// than allocating on a peer's say-so.
func ReadVarBytes(r io.Reader) ([]byte, error) {
	length, err := ReadVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("var bytes length - %w", err)
	}
	if length > MaxVarStringLen {
		return nil, fmt.Errorf("var bytes length %d exceeds cap %d: %w", length, MaxVarStringLen, ErrInvalidData)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("var bytes body - %w", err)
	}
	return buf, nil
}

func WriteVarBytes(data []byte) ([]byte, error) {
	prefix, err := EncodeVarInt(uint64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("var bytes length - %w", err)
	}
	return append(prefix, data...), nil
}

func ReadVarString(r io.Reader) (string, error) {
	data, err := ReadVarBytes(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func WriteVarString(s string) ([]byte, error) {
	return WriteVarBytes([]byte(s))
}

// ErrInvalidData marks malformed wire data: a short read, an out-of-range
// length, or a value the chosen Go type cannot represent. Callers compare
// with errors.Is.
var ErrInvalidData = fmt.Errorf("invalid data")

// ErrShortRead marks a read that needs more buffered bytes before it can
// make progress; the reactor treats it as "wait and retry", not fatal.
var ErrShortRead = fmt.Errorf("short read")
