package heap

// logf emits a diagnostic lifecycle line through a non-fatal *log.Logger
// field, so a library caller can silence or redirect it instead of
// inheriting a package-level default.
func (a *Arena) logf(format string, args ...interface{}) {
	if a.Logger == nil {
		return
	}
	a.Logger.Printf(format, args...)
}
