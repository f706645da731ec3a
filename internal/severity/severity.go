package severity

import (
	"fmt"

	"github.com/tinytelemetry/logway/internal/model"
)

// Level is a Pino/Bunyan numeric log level.
type Level int

const (
	Trace Level = 10
	Debug Level = 20
	Info  Level = 30
	Warn  Level = 40
	Error Level = 50
	Fatal Level = 60
)

var levelNames = map[Level]string{
	Trace: "trace",
	Debug: "debug",
	Info:  "info",
	Warn:  "warn",
	Error: "error",
	Fatal: "fatal",
}

var levelsByName = map[string]Level{
	"trace": Trace,
	"debug": Debug,
	"info":  Info,
	"warn":  Warn,
	"error": Error,
	"fatal": Fatal,
}

// Levels returns every known level in ascending order.
func Levels() []Level {
	return []Level{Trace, Debug, Info, Warn, Error, Fatal}
}

// String returns the lower-case level name, or "level(N)" for unknown codes.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Code returns the numeric code.
func (l Level) Code() int { return int(l) }

// FromCode maps a stored numeric code to its level. Codes outside the six known
// levels are rejected rather than rounded to the nearest level.
func FromCode(code int) (Level, error) {
	l := Level(code)
	if _, ok := levelNames[l]; !ok {
		return 0, fmt.Errorf("%w: code %d", model.ErrUnknownSeverity, code)
	}
	return l, nil
}

// FromName maps a level name to its level. Matching is exact: names are
// lower-case and no aliases are accepted.
func FromName(name string) (Level, error) {
	l, ok := levelsByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", model.ErrInvalidLogLevel, name)
	}
	return l, nil
}

// NameOf is FromCode followed by String.
func NameOf(code int) (string, error) {
	l, err := FromCode(code)
	if err != nil {
		return "", err
	}
	return l.String(), nil
}
