package logging

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/devflow/internal/config"
)

const (
	maxPatternLen = 200

	maskedKey     = "[REDACTED]"
	maskedPattern = "[REDACTED:pattern]"
)

// Secret logs a config.Secret as "[REDACTED:<len>]", so an unset token shows
// up as length 0.
func Secret(key string, val config.Secret) zap.Field {
	return RedactedString(key, val.Value())
}

// RedactedString logs val as "[REDACTED:<len>]".
func RedactedString(key, val string) zap.Field {
	return zap.String(key, "[REDACTED:"+strconv.Itoa(len(val))+"]")
}

// RedactingEncoder masks fields whose key is sensitive and string values that
// look like credentials (gh tokens, bearer headers).
type RedactingEncoder struct {
	zapcore.Encoder
	keys     map[string]struct{}
	patterns []*regexp.Regexp
}

// NewRedactingEncoder wraps base with cfg's rules.
func NewRedactingEncoder(base zapcore.Encoder, cfg RedactionConfig) (*RedactingEncoder, error) {
	enc := &RedactingEncoder{Encoder: base, keys: map[string]struct{}{}}
	if !cfg.Enabled {
		return enc, nil
	}
	for _, k := range cfg.Fields {
		enc.keys[strings.ToLower(k)] = struct{}{}
	}
	for _, p := range cfg.Patterns {
		if len(p) > maxPatternLen {
			return nil, fmt.Errorf("redaction pattern too long (max %d chars): %q", maxPatternLen, p)
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		enc.patterns = append(enc.patterns, re)
	}
	return enc, nil
}

func (e *RedactingEncoder) sensitive(key string) bool {
	_, ok := e.keys[strings.ToLower(key)]
	return ok
}

// mask returns the replacement for a string value, if any.
func (e *RedactingEncoder) mask(key, val string) (string, bool) {
	if e.sensitive(key) {
		return maskedKey, true
	}
	for _, re := range e.patterns {
		if re.MatchString(val) {
			return maskedPattern, true
		}
	}
	return "", false
}

// AddString implements zapcore.ObjectEncoder.
func (e *RedactingEncoder) AddString(key, val string) {
	if m, ok := e.mask(key, val); ok {
		val = m
	}
	e.Encoder.AddString(key, val)
}

// AddByteString implements zapcore.ObjectEncoder.
func (e *RedactingEncoder) AddByteString(key string, val []byte) {
	if m, ok := e.mask(key, string(val)); ok {
		val = []byte(m)
	}
	e.Encoder.AddByteString(key, val)
}

// AddBinary implements zapcore.ObjectEncoder.
func (e *RedactingEncoder) AddBinary(key string, val []byte) {
	if e.sensitive(key) {
		e.Encoder.AddString(key, maskedKey)
		return
	}
	e.Encoder.AddBinary(key, val)
}

// AddReflected implements zapcore.ObjectEncoder.
func (e *RedactingEncoder) AddReflected(key string, val any) error {
	if e.sensitive(key) {
		e.Encoder.AddString(key, maskedKey)
		return nil
	}
	return e.Encoder.AddReflected(key, val)
}

// AddArray implements zapcore.ObjectEncoder.
func (e *RedactingEncoder) AddArray(key string, arr zapcore.ArrayMarshaler) error {
	if e.sensitive(key) {
		e.Encoder.AddString(key, maskedKey)
		return nil
	}
	return e.Encoder.AddArray(key, arr)
}

// AddObject implements zapcore.ObjectEncoder.
func (e *RedactingEncoder) AddObject(key string, obj zapcore.ObjectMarshaler) error {
	if e.sensitive(key) {
		e.Encoder.AddString(key, maskedKey)
		return nil
	}
	return e.Encoder.AddObject(key, obj)
}

// Clone implements zapcore.Encoder.
func (e *RedactingEncoder) Clone() zapcore.Encoder {
	return &RedactingEncoder{
		Encoder:  e.Encoder.Clone(),
		keys:     e.keys,
		patterns: e.patterns,
	}
}

// EncodeEntry masks per-entry fields. Fields attached through With reach the
// Add* methods instead.
func (e *RedactingEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	if len(e.keys) == 0 && len(e.patterns) == 0 {
		return e.Encoder.EncodeEntry(ent, fields)
	}
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		out[i] = f
		switch {
		case e.sensitive(f.Key):
			out[i] = zap.String(f.Key, maskedKey)
		case f.Type == zapcore.StringType:
			if m, ok := e.mask(f.Key, f.String); ok {
				out[i] = zap.String(f.Key, m)
			}
		}
	}
	return e.Encoder.EncodeEntry(ent, out)
}
