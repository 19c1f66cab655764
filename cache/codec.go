package cache

import (
	"errors"
	"io"
	"reflect"

	"github.com/ugorji/go/codec"
)

// msgpack is shared by every encoder,a handle is safe for concurrent use once configured
var msgpack = func() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.MapType = reflect.TypeOf(map[string]interface{}(nil))
	h.WriteExt = true
	h.RawToString = true
	return h
}()

// ErrEmpty is returned when decoding no bytes
var ErrEmpty = errors.New("cache: empty msgpack data")

// Marshal encode v as msgpack
func Marshal(v interface{}) (data []byte, err error) {
	err = codec.NewEncoderBytes(&data, msgpack).Encode(v)
	return
}

// Unmarshal decode msgpack data into v
func Unmarshal(data []byte, v interface{}) error {
	if len(data) == 0 {
		return ErrEmpty
	}
	return codec.NewDecoderBytes(data, msgpack).Decode(v)
}

// NewEncoder a msgpack stream encoder writing to w
func NewEncoder(w io.Writer) *codec.Encoder {
	return codec.NewEncoder(w, msgpack)
}

// NewDecoder a msgpack stream decoder reading from r,Decode returns io.EOF once r is exhausted
func NewDecoder(r io.Reader) *codec.Decoder {
	return codec.NewDecoder(r, msgpack)
}
