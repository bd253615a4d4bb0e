package lsp

import (
	"io"
	"os"
)

type stdio struct {
	in  io.ReadCloser
	out io.WriteCloser
}

// Stdio joins the process stdin and stdout into one stream
func Stdio() io.ReadWriteCloser {
	return stdio{in: os.Stdin, out: os.Stdout}
}

func (s stdio) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s stdio) Write(p []byte) (int, error) { return s.out.Write(p) }

func (s stdio) Close() error {
	inErr := s.in.Close()
	if err := s.out.Close(); err != nil {
		return err
	}
	return inErr
}
