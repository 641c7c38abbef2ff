package file

import (
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// Encoding tags how Record content is stored.
type Encoding string

const (
	EncodingUTF8   Encoding = "utf-8"
	EncodingBase64 Encoding = "base64"
)

// Record is one stored file. Content is never raw bytes so the record
// stays serializable; Encode/Decode provide the lossless round-trip.
type Record struct {
	Content    string
	Encoding   Encoding
	CreatedAt  time.Time
	ModifiedAt time.Time

	legacy bool
}

// New builds a record for freshly written bytes. CreatedAt and
// ModifiedAt both start at now.
func New(data []byte, now time.Time) Record {
	content, enc := Encode(data)
	return Record{
		Content:    content,
		Encoding:   enc,
		CreatedAt:  now,
		ModifiedAt: now,
	}
}

// Bytes returns the original file bytes.
func (r Record) Bytes() ([]byte, error) {
	return Decode(r.Content, r.Encoding)
}

// Legacy reports whether this record was decoded from the deprecated
// line-array shape.
func (r Record) Legacy() bool {
	return r.legacy
}

// WithContent returns a copy of r holding the new bytes. CreatedAt is
// preserved, ModifiedAt is bumped, and the legacy flag is cleared:
// rewriting a legacy record upgrades it to the unified shape.
func (r Record) WithContent(data []byte, now time.Time) Record {
	content, enc := Encode(data)
	return Record{
		Content:    content,
		Encoding:   enc,
		CreatedAt:  r.CreatedAt,
		ModifiedAt: now,
	}
}

type unifiedWire struct {
	Content    string    `json:"content"`
	Encoding   Encoding  `json:"encoding"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

type legacyWire struct {
	Content    []string  `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

type probeWire struct {
	Content    interface{} `json:"content"`
	Encoding   Encoding    `json:"encoding"`
	CreatedAt  time.Time   `json:"created_at"`
	ModifiedAt time.Time   `json:"modified_at"`
}

// Marshal serializes a record in the unified wire shape.
func Marshal(r Record) ([]byte, error) {
	return sonic.Marshal(unifiedWire{
		Content:    r.Content,
		Encoding:   r.Encoding,
		CreatedAt:  r.CreatedAt,
		ModifiedAt: r.ModifiedAt,
	})
}

// MarshalLegacy serializes a record in the deprecated line-array shape,
// for stores explicitly configured to keep writing it. Content must be
// UTF-8; base64 records cannot be represented as lines.
func MarshalLegacy(r Record) ([]byte, error) {
	if r.Encoding == EncodingBase64 {
		return nil, fmt.Errorf("cannot write base64 content in legacy line-array shape")
	}
	return sonic.Marshal(legacyWire{
		Content:    strings.Split(r.Content, "\n"),
		CreatedAt:  r.CreatedAt,
		ModifiedAt: r.ModifiedAt,
	})
}

// Unmarshal parses either wire shape. The legacy line-array shape is
// joined with "\n" and the returned record reports Legacy() == true.
func Unmarshal(data []byte) (Record, error) {
	var probe probeWire
	if err := sonic.Unmarshal(data, &probe); err != nil {
		return Record{}, fmt.Errorf("parse file record: %w", err)
	}

	switch content := probe.Content.(type) {
	case string:
		return Record{
			Content:    content,
			Encoding:   probe.Encoding,
			CreatedAt:  probe.CreatedAt,
			ModifiedAt: probe.ModifiedAt,
		}, nil
	case []interface{}:
		lines := make([]string, 0, len(content))
		for _, item := range content {
			line, ok := item.(string)
			if !ok {
				return Record{}, fmt.Errorf("legacy record line is %T, want string", item)
			}
			lines = append(lines, line)
		}
		return Record{
			Content:    strings.Join(lines, "\n"),
			Encoding:   EncodingUTF8,
			CreatedAt:  probe.CreatedAt,
			ModifiedAt: probe.ModifiedAt,
			legacy:     true,
		}, nil
	case nil:
		return Record{}, fmt.Errorf("file record has no content field")
	default:
		return Record{}, fmt.Errorf("file record content is %T, want string or []string", content)
	}
}
