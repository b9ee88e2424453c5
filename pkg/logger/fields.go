package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// Field adds one typed key/value to a log event or logger context.
type Field interface {
	AddTo(event *zerolog.Event)
	AddToContext(ctx zerolog.Context) zerolog.Context
}

type stringField struct {
	key, val string
}

func (f stringField) AddTo(e *zerolog.Event)                         { e.Str(f.key, f.val) }
func (f stringField) AddToContext(c zerolog.Context) zerolog.Context { return c.Str(f.key, f.val) }

func String(key, val string) Field { return stringField{key, val} }

type intField struct {
	key string
	val int
}

func (f intField) AddTo(e *zerolog.Event)                         { e.Int(f.key, f.val) }
func (f intField) AddToContext(c zerolog.Context) zerolog.Context { return c.Int(f.key, f.val) }

func Int(key string, val int) Field { return intField{key, val} }

type float64Field struct {
	key string
	val float64
}

func (f float64Field) AddTo(e *zerolog.Event)                         { e.Float64(f.key, f.val) }
func (f float64Field) AddToContext(c zerolog.Context) zerolog.Context { return c.Float64(f.key, f.val) }

func Float64(key string, val float64) Field { return float64Field{key, val} }

type boolField struct {
	key string
	val bool
}

func (f boolField) AddTo(e *zerolog.Event)                         { e.Bool(f.key, f.val) }
func (f boolField) AddToContext(c zerolog.Context) zerolog.Context { return c.Bool(f.key, f.val) }

func Bool(key string, val bool) Field { return boolField{key, val} }

type durationField struct {
	key string
	val time.Duration
}

func (f durationField) AddTo(e *zerolog.Event)                         { e.Dur(f.key, f.val) }
func (f durationField) AddToContext(c zerolog.Context) zerolog.Context { return c.Dur(f.key, f.val) }

func Duration(key string, val time.Duration) Field { return durationField{key, val} }

type stringsField struct {
	key  string
	vals []string
}

func (f stringsField) AddTo(e *zerolog.Event)                         { e.Strs(f.key, f.vals) }
func (f stringsField) AddToContext(c zerolog.Context) zerolog.Context { return c.Strs(f.key, f.vals) }

func Strings(key string, vals []string) Field { return stringsField{key, vals} }

type errorField struct {
	err error
}

func (f errorField) AddTo(e *zerolog.Event)                         { e.Err(f.err) }
func (f errorField) AddToContext(c zerolog.Context) zerolog.Context { return c.Err(f.err) }

func Error(err error) Field { return errorField{err} }
