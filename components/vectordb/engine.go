package vectordb

import (
	"context"
	"errors"
)

type EngineType string

const (
	File    EngineType = "file"
	Memory  EngineType = "memory"
	Chromem EngineType = "chromem"
	Milvus  EngineType = "milvus"
)

// Engine persists embedded records into a named collection.
type Engine interface {
	Insert(ctx context.Context, collection string, records ...Record) error
}

// ErrDimension is returned when a record does not match the collection dimension.
var ErrDimension = errors.New("vector dimension mismatch")
