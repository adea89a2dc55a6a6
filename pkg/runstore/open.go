package runstore

import (
	"context"

	"github.com/matzehuels/cookgems/pkg/errors"
)

// Options selects a backend for Open.
type Options struct {
	Dir           string // FileStore directory
	MongoURI      string // MongoDB connection string; takes precedence over Dir
	MongoDatabase string // MongoDB database (default: DefaultDatabase)
}

// Open returns a MongoStore when a URI is configured, else a FileStore.
func Open(ctx context.Context, opts Options) (Store, error) {
	if opts.MongoURI != "" {
		s, err := OpenMongo(ctx, opts.MongoURI, opts.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	if opts.Dir == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "no history directory or mongodb uri configured")
	}
	s, err := NewFileStore(opts.Dir)
	if err != nil {
		return nil, err
	}
	return s, nil
}
