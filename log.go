package vela

import "go.uber.org/zap"

// defaultLogger is process-wide and silent: a Context logs through it
// until a host calls SetLogger, after which it logs through the
// logger given there instead, mirroring how the teacher's settings
// store left logging off until a command explicitly turned on
// verbosity.
var defaultLogger = zap.NewNop().Sugar()

// SetLogger replaces the logger a Context uses for console.log/
// console.error output, the only output the engine logs; pass nil to
// silence it again.
func (c *Context) SetLogger(l *zap.SugaredLogger) {
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	c.log = l
}

func (c *Context) logger() *zap.SugaredLogger {
	if c.log == nil {
		return defaultLogger
	}
	return c.log
}

// NewStderrLogger builds a development-formatted logger writing to
// stderr, the logger a CLI host typically installs with SetLogger when
// it wants console.log/console.error output visible.
func NewStderrLogger() *zap.SugaredLogger {
	l, err := zap.NewDevelopment()
	if err != nil {
		return defaultLogger
	}
	return l.Sugar()
}
