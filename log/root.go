package log

// Root returns the root logger.
func Root() Logger {
	return root
}

// New returns a new logger with the given context.
func New(ctx ...interface{}) Logger {
	return root.New(ctx...)
}

// SetDefault sets the default global logger and replaces the root handler.
func SetDefault(h Handler) {
	root.SetHandler(h)
}

func Trace(msg string, ctx ...interface{}) { root.write(msg, LvlTrace, ctx, skipLevel) }
func Debug(msg string, ctx ...interface{}) { root.write(msg, LvlDebug, ctx, skipLevel) }
func Info(msg string, ctx ...interface{})  { root.write(msg, LvlInfo, ctx, skipLevel) }
func Warn(msg string, ctx ...interface{})  { root.write(msg, LvlWarn, ctx, skipLevel) }
func Error(msg string, ctx ...interface{}) { root.write(msg, LvlError, ctx, skipLevel) }
func Crit(msg string, ctx ...interface{})  { root.Crit(msg, ctx...) }
