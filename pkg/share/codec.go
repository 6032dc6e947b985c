package share

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/aretw0/stepper/pkg/trace"
	"github.com/mitchellh/mapstructure"
)

const tagName = "share"

// Codec encodes and decodes states of type T, which must be a struct whose
// shareable fields carry a `share:"key"` tag.
//
// Supported field types are string, []int and pointers to int, bool and string.
// Pointers express "defined": a nil pointer is left out of the fragment.
type Codec[T any] struct {
	prefix string
	fields []field
}

type field struct {
	index int
	key   string
}

// CodecOption configures a Codec.
type CodecOption func(*codecConfig)

type codecConfig struct {
	prefix string
}

// WithPrefix namespaces the payload as "prefix-<payload>" so several codecs can
// share one fragment.
func WithPrefix(prefix string) CodecOption {
	return func(c *codecConfig) {
		c.prefix = prefix
	}
}

// NewCodec inspects T and returns a codec for it.
func NewCodec[T any](opts ...CodecOption) (*Codec[T], error) {
	var cfg codecConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("share: %s is not a struct", typ)
	}

	if strings.ContainsAny(cfg.prefix, "=&#") {
		return nil, fmt.Errorf("share: invalid prefix %q", cfg.prefix)
	}

	c := &Codec[T]{prefix: cfg.prefix}
	seen := make(map[string]bool)
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		key, ok := sf.Tag.Lookup(tagName)
		if !ok || key == "-" || !sf.IsExported() {
			continue
		}
		if key == "" || strings.ContainsAny(key, "=&#") {
			return nil, fmt.Errorf("share: invalid key %q on field %s", key, sf.Name)
		}
		if seen[key] {
			return nil, fmt.Errorf("share: duplicate key %q", key)
		}
		if !supported(sf.Type) {
			return nil, fmt.Errorf("share: field %s has unsupported type %s", sf.Name, sf.Type)
		}
		seen[key] = true
		c.fields = append(c.fields, field{index: i, key: key})
	}
	if len(c.fields) == 0 {
		return nil, fmt.Errorf("share: %s has no %q tagged fields", typ, tagName)
	}
	return c, nil
}

// MustCodec is like NewCodec but panics on a malformed state type.
func MustCodec[T any](opts ...CodecOption) *Codec[T] {
	c, err := NewCodec[T](opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func supported(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String:
		return true
	case reflect.Slice:
		return t.Elem().Kind() == reflect.Int
	case reflect.Pointer:
		switch t.Elem().Kind() {
		case reflect.Int, reflect.Bool, reflect.String:
			return true
		}
	}
	return false
}

// Prefix returns the configured namespace, if any.
func (c *Codec[T]) Prefix() string {
	return c.prefix
}

// Encode renders state as key=value pairs joined by "&".
// A state with no defined fields encodes to the empty string, prefix or not.
func (c *Codec[T]) Encode(state T) string {
	v := reflect.ValueOf(state)
	pairs := make([]string, 0, len(c.fields))
	for _, f := range c.fields {
		raw, ok := encodeValue(v.Field(f.index))
		if !ok {
			continue
		}
		pairs = append(pairs, f.key+"="+raw)
	}
	if len(pairs) == 0 {
		return ""
	}
	payload := strings.Join(pairs, "&")
	if c.prefix != "" {
		return c.prefix + "-" + payload
	}
	return payload
}

func encodeValue(v reflect.Value) (string, bool) {
	switch v.Kind() {
	case reflect.String:
		if v.Len() == 0 {
			return "", false
		}
		return url.QueryEscape(v.String()), true
	case reflect.Slice:
		if v.Len() == 0 {
			return "", false
		}
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = strconv.FormatInt(v.Index(i).Int(), 10)
		}
		return strings.Join(parts, ","), true
	case reflect.Pointer:
		if v.IsNil() {
			return "", false
		}
		return encodeValue(v.Elem())
	case reflect.Int:
		return strconv.FormatInt(v.Int(), 10), true
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true
	}
	return "", false
}

// Decode parses a fragment, with or without the leading "#".
// It returns nil when the fragment is empty, carries another codec's prefix,
// or yields no valid field.
func (c *Codec[T]) Decode(fragment string) *T {
	payload, ok := c.payload(fragment)
	if !ok {
		return nil
	}

	raw := make(map[string]string)
	for _, pair := range strings.Split(payload, "&") {
		key, value, found := strings.Cut(pair, "=")
		if !found || value == "" {
			continue
		}
		unescaped, err := url.QueryUnescape(value)
		if err != nil {
			continue
		}
		if _, dup := raw[key]; !dup {
			raw[key] = unescaped
		}
	}

	out := new(T)
	dst := reflect.ValueOf(out).Elem()
	decoded := 0
	for _, f := range c.fields {
		value, ok := raw[f.key]
		if !ok {
			continue
		}
		// Each field is decoded on its own so one bad value cannot sink the rest.
		scratch := new(T)
		if err := decodeField(f.key, value, scratch); err != nil {
			continue
		}
		dst.Field(f.index).Set(reflect.ValueOf(scratch).Elem().Field(f.index))
		decoded++
	}
	if decoded == 0 {
		return nil
	}
	return out
}

func (c *Codec[T]) payload(fragment string) (string, bool) {
	fragment = strings.TrimPrefix(fragment, "#")
	if fragment == "" {
		return "", false
	}
	if c.prefix == "" {
		return fragment, true
	}
	rest, ok := strings.CutPrefix(fragment, c.prefix+"-")
	if !ok || rest == "" {
		return "", false
	}
	return rest, true
}

func decodeField(key, value string, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          tagName,
		WeaklyTypedInput: true,
		DecodeHook:       trace.ListHook(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any{key: value})
}
