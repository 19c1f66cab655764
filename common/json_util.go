package common

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
)

// JSON the json codec compatible with encoding/json
var JSON = jsoniter.ConfigCompatibleWithStandardLibrary

// UnmarshalUseNumber decode with UseNumber so that int64 is not turned into float64
func UnmarshalUseNumber(data []byte, v interface{}) error {
	dec := JSON.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
