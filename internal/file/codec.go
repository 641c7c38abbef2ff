package file

import (
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// Encode converts raw bytes to the stored content representation.
// Valid UTF-8 is kept as-is and tagged "utf-8"; anything else is
// base64-encoded and tagged "base64".
func Encode(data []byte) (string, Encoding) {
	if utf8.Valid(data) {
		return string(data), EncodingUTF8
	}
	return base64.StdEncoding.EncodeToString(data), EncodingBase64
}

// Decode converts stored content back to the original bytes.
// An empty encoding tag is treated as UTF-8 for records that predate
// the tag.
func Decode(content string, enc Encoding) ([]byte, error) {
	switch enc {
	case EncodingUTF8, "":
		return []byte(content), nil
	case EncodingBase64:
		data, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return nil, fmt.Errorf("decode base64 content: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unknown content encoding %q", enc)
	}
}

// Sniff returns the detected MIME type of raw content, e.g. for
// serving downloads with a sensible Content-Type.
func Sniff(data []byte) string {
	return mimetype.Detect(data).String()
}
