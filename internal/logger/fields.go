package logger

import (
	"time"

	"github.com/rs/zerolog"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
	kindError
	kindAny
)

// Field is a typed key/value attached to a log event.
type Field struct {
	Key   string
	Value interface{}
	kind  fieldKind
}

func (f Field) addTo(event *zerolog.Event) {
	switch f.kind {
	case kindString:
		event.Str(f.Key, f.Value.(string))
	case kindInt:
		event.Int(f.Key, f.Value.(int))
	case kindFloat:
		event.Float64(f.Key, f.Value.(float64))
	case kindBool:
		event.Bool(f.Key, f.Value.(bool))
	case kindDuration:
		event.Dur(f.Key, f.Value.(time.Duration))
	case kindError:
		if err, ok := f.Value.(error); ok {
			event.Err(err)
		}
	default:
		event.Interface(f.Key, f.Value)
	}
}

func String(key, value string) Field {
	return Field{Key: key, Value: value, kind: kindString}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value, kind: kindInt}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value, kind: kindFloat}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value, kind: kindBool}
}

// Duration logs d in milliseconds, zerolog's default duration unit.
func Duration(key string, d time.Duration) Field {
	return Field{Key: key, Value: d, kind: kindDuration}
}

func Error(err error) Field {
	return Field{Key: "error", Value: err, kind: kindError}
}

func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value, kind: kindAny}
}
