package json

import (
	"io"
	"os"
)

// ReadFromFile will read JSON data from the specified file and write the
// decoded data to value. Unknown fields are rejected, so that typos in
// hand-written files are reported rather than silently ignored.
func ReadFromFile(filename string, value interface{}) error {
	return readFromFile(filename, value)
}

// WriteToFile will atomically write value as indented JSON to filename.
func WriteToFile(filename string, perm os.FileMode, indent string,
	value interface{}) error {
	return writeToFile(filename, perm, indent, value)
}

func WriteWithIndent(w io.Writer, indent string, value interface{}) error {
	return writeWithIndent(w, indent, value)
}
