package document

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// File is a record source on the local filesystem.
type File struct {
	path string
	meta map[string]string
}

var _ Source = (*File)(nil)

func NewFile(fname string) (*File, error) {
	fileInfo, err := os.Stat(fname)
	if err != nil {
		return nil, err
	}
	if fileInfo.IsDir() {
		return nil, errors.New("FileDocument could not be a directory")
	}
	return &File{
		path: fname,
		meta: map[string]string{
			"source":   "file",
			"filename": fileInfo.Name(),
			"size":     strconv.FormatInt(fileInfo.Size(), 10),
			"modtime":  strconv.FormatInt(fileInfo.ModTime().Unix(), 10),
		},
	}, nil
}

func (d *File) Open(context.Context) (io.ReadCloser, error) {
	return os.Open(d.path)
}

func (d *File) Name() string {
	return filepath.Base(d.path)
}

func (d *File) Meta() map[string]string {
	return d.meta
}
