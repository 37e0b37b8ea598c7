package main

import (
	"bufio"
	"io"
	"os"
)

// openInput opens path for reading; "-" or an empty path is stdin.
func openInput(path string) (io.ReadCloser, error) {
	if len(path) == 0 || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

type output struct {
	*bufio.Writer
	file *os.File
}

// createOutput creates path for writing; "-" or an empty path is stdout.
func createOutput(path string) (*output, error) {
	file := os.Stdout
	if len(path) > 0 && path != "-" {
		var err error
		if file, err = os.Create(path); err != nil {
			return nil, err
		}
	}
	return &output{Writer: bufio.NewWriter(file), file: file}, nil
}

// Close flushes buffered data. Stdout stays open.
func (o *output) Close() error {
	if err := o.Flush(); err != nil {
		return err
	}
	if o.file == os.Stdout {
		return nil
	}
	return o.file.Close()
}

func argOrStdin(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return "-"
}
