// Package jsoncodec is the wire codec shared by both event channels and the
// dispatch tap. It is std-compatible so encoded Events and Results look the
// same as encoding/json output.
package jsoncodec

import (
	"io"

	"github.com/bytedance/sonic"
)

var (
	defaultConfig = sonic.ConfigStd

	// numberConfig keeps numbers as json.Number so integers beyond 2^53
	// survive a decode and re-encode unchanged.
	numberConfig = sonic.Config{
		EscapeHTML:       true,
		SortMapKeys:      true,
		CompactMarshaler: true,
		CopyString:       true,
		ValidateString:   true,
		UseNumber:        true,
	}.Froze()
)

func Marshal(v any) ([]byte, error) {
	return defaultConfig.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return defaultConfig.MarshalIndent(v, prefix, indent)
}

// MarshalToString encodes v for a text frame.
func MarshalToString(v any) (string, error) {
	return defaultConfig.MarshalToString(v)
}

func Unmarshal(data []byte, v any) error {
	return defaultConfig.Unmarshal(data, v)
}

// UnmarshalFromString decodes a text frame into v.
func UnmarshalFromString(s string, v any) error {
	return defaultConfig.UnmarshalFromString(s, v)
}

// UnmarshalNumbers is Unmarshal with numbers in untyped values decoded as
// json.Number instead of float64.
func UnmarshalNumbers(data []byte, v any) error {
	return numberConfig.Unmarshal(data, v)
}

// UnmarshalNumbersFromString is UnmarshalFromString with json.Number decoding.
func UnmarshalNumbersFromString(s string, v any) error {
	return numberConfig.UnmarshalFromString(s, v)
}

func Encode(w io.Writer, v any) error {
	return defaultConfig.NewEncoder(w).Encode(v)
}

func Decode(r io.Reader, v any) error {
	return defaultConfig.NewDecoder(r).Decode(v)
}
