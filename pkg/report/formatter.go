package report

// Formatter defines the interface for formatting a Report.
type Formatter interface {
	// Format converts a Report to a formatted string.
	Format(report *Report) string
}

// FormatFunc is a function adapter for the Formatter interface.
type FormatFunc func(report *Report) string

// Format implements the Formatter interface.
func (f FormatFunc) Format(report *Report) string {
	return f(report)
}
