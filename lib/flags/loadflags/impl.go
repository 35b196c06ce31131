package loadflags

import (
	"bufio"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
)

func loadFlags(flagSet *flag.FlagSet, dirname string) error {
	err := loadFlagsFromFile(flagSet, filepath.Join(dirname, "flags.default"))
	if err != nil {
		return err
	}
	return loadFlagsFromFile(flagSet, filepath.Join(dirname, "flags.extra"))
}

func loadFlagsFromFile(flagSet *flag.FlagSet, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) < 1 {
			continue
		}
		if line[0] == '#' || line[0] == ';' {
			continue
		}
		splitLine := strings.SplitN(line, "=", 2)
		if len(splitLine) < 2 {
			return errors.New("bad line, cannot split name from value: " + line)
		}
		name := strings.TrimSpace(splitLine[0])
		if strings.Count(name, " ") != 0 {
			return errors.New("bad line, name has whitespace: " + line)
		}
		value := strings.TrimSpace(splitLine[1])
		if err := flagSet.Set(name, value); err != nil {
			return err
		}
	}
	return scanner.Err()
}
