package json

import (
	"encoding/json"
	"io"
	"os"
)

func readFromFile(filename string, value interface{}) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	return read(file, value)
}

func read(reader io.Reader, value interface{}) error {
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	return decoder.Decode(value)
}
