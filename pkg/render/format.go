package render

import "fmt"

// Format is a report output format.
type Format string

const (
	FormatHTML     Format = "HTML"
	FormatAsciiDoc Format = "AsciiDoc"
	FormatPDF      Format = "PDF"
)

// Formats lists the supported formats in the order the builder offers them.
func Formats() []Format {
	return []Format{FormatAsciiDoc, FormatPDF, FormatHTML}
}

// ParseFormat matches value exactly against the supported formats; the
// builder posts "PDF", "AsciiDoc" or "HTML" and anything else is rejected.
func ParseFormat(value string) (Format, error) {
	for _, f := range Formats() {
		if value == string(f) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, value)
}

func (f Format) String() string {
	return string(f)
}
