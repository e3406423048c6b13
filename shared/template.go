package shared

import "fmt"

// MaxContentSize is the largest content a template accepts.
const MaxContentSize = 1_000_000

// Template is a block template: the content followed by the nonce field.
// The content length is fixed at construction.
type Template struct {
	buf        []byte
	contentLen int
}

// NewTemplate copies content into a new template with a zeroed nonce field.
func NewTemplate(content []byte) (*Template, error) {
	if len(content) > MaxContentSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrContentTooLarge, len(content), MaxContentSize)
	}
	buf := make([]byte, len(content)+NonceFieldSize)
	copy(buf, content)
	t := &Template{buf: buf, contentLen: len(content)}
	t.SetSeed(0)
	t.SetCounter(0)
	return t, nil
}

// TemplateSize returns the size of a template holding contentLen bytes of content.
func TemplateSize(contentLen int) int {
	return contentLen + NonceFieldSize
}

func (t *Template) SeedOffset() int {
	return t.contentLen
}

func (t *Template) CounterOffset() int {
	return t.contentLen + SubfieldWidth
}

func (t *Template) SetSeed(seed uint32) {
	EncodeDigits(t.buf, t.SeedOffset(), seed)
}

func (t *Template) SetCounter(counter uint32) {
	EncodeDigits(t.buf, t.CounterOffset(), counter)
}

func (t *Template) Seed() uint32 {
	v, _ := DecodeDigits(t.buf, t.SeedOffset())
	return v
}

func (t *Template) Counter() uint32 {
	v, _ := DecodeDigits(t.buf, t.CounterOffset())
	return v
}

// Content returns the content part of the template.
func (t *Template) Content() []byte {
	return t.buf[:t.contentLen]
}

// Bytes returns the full template. The slice aliases the template buffer.
func (t *Template) Bytes() []byte {
	return t.buf
}

func (t *Template) Len() int {
	return len(t.buf)
}
