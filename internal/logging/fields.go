package logging

import (
	"github.com/felixgeelhaar/bolt/v3"
)

// Field applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Event wraps a bolt event so Fields can be chained onto it.
type Event struct {
	event *bolt.Event
}

// With starts a chain of fields on e.
func With(e *bolt.Event) *Event {
	return &Event{event: e}
}

// Add applies f and returns the event for chaining.
func (e *Event) Add(f Field) *Event {
	e.event = f(e.event)
	return e
}

// Msg sends the event with a message.
func (e *Event) Msg(msg string) {
	e.event.Msg(msg)
}

// Page adds a 1-based page number.
func Page(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("page", n)
	}
}

// Pages adds a page count.
func Pages(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("pages", n)
	}
}

// State adds a conversion state.
func State(s string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("state", s)
	}
}

// Method adds the conversion method.
func Method(m string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("method", m)
	}
}

// Percent adds a progress percentage.
func Percent(p int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("percent", p)
	}
}

// Warning adds the kind and message of a non-fatal problem.
func Warning(kind, message string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("warning", kind).Str("detail", message)
	}
}

// Bytes adds an output size.
func Bytes(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("bytes", n)
	}
}

// Path adds a file path.
func Path(p string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("path", p)
	}
}

// Job adds a suspended job id.
func Job(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("job_id", id)
	}
}

// Err adds an error, if any.
func Err(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Int adds an integer field with a custom key.
func Int(key string, n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int(key, n)
	}
}

// Str adds a string field with a custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
