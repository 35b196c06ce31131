package json

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/stormos/installer/lib/fsutil"
)

func writeToFile(filename string, perm os.FileMode, indent string,
	value interface{}) error {
	buffer := &bytes.Buffer{}
	if err := writeWithIndent(buffer, indent, value); err != nil {
		return err
	}
	return fsutil.CopyToFile(filename, perm, buffer)
}

func writeWithIndent(w io.Writer, indent string, value interface{}) error {
	if data, err := json.MarshalIndent(value, "", indent); err != nil {
		return err
	} else {
		if _, err := w.Write(data); err != nil {
			return err
		}
		_, err = w.Write([]byte("\n"))
		return err
	}
}
