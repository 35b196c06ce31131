package fsutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

func copyToFile(destFilename string, perm os.FileMode,
	reader io.Reader) error {
	tmpFilename := destFilename + "~"
	destFile, err := os.OpenFile(tmpFilename,
		os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	defer os.Remove(tmpFilename)
	defer destFile.Close()
	if _, err := io.Copy(destFile, reader); err != nil {
		return fmt.Errorf("error copying to: %s: %s", destFilename, err)
	}
	if err := destFile.Close(); err != nil {
		return err
	}
	// The umask may have masked some bits.
	if err := os.Chmod(tmpFilename, perm); err != nil {
		return err
	}
	return os.Rename(tmpFilename, destFilename)
}

func copyFile(destFilename, sourceFilename string, mode os.FileMode) error {
	if mode == 0 {
		fi, err := os.Stat(sourceFilename)
		if err != nil {
			return errors.New(sourceFilename + ": " + err.Error())
		}
		mode = fi.Mode().Perm()
	}
	sourceFile, err := os.Open(sourceFilename)
	if err != nil {
		return errors.New(sourceFilename + ": " + err.Error())
	}
	defer sourceFile.Close()
	return CopyToFile(destFilename, mode, sourceFile)
}

func writeString(filename string, perm os.FileMode, data string) error {
	return copyToFile(filename, perm, strings.NewReader(data))
}
