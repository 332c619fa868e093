// Package vectorutils is the vector store utility package
package vectorutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/arqalabs/arqa/pkg/vector"
	"github.com/arqalabs/arqa/pkg/vector/flat"
	"github.com/arqalabs/arqa/pkg/vector/sqlitevec"
)

type NewVectorDriverOpts struct {
	ProviderType string
	Dir          string
	Collection   string
	SQLitePath   string
	Dimensions   uint
	Logger       *zap.Logger
}

func NewVectorDriver(o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "flat":
		return flat.Open(flat.Config{
			Dir:        o.Dir,
			Collection: o.Collection,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "sqlitevec":
		return sqlitevec.New(sqlitevec.Config{
			DBPath:     o.SQLitePath,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
