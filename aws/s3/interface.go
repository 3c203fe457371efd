//go:generate mockgen -package mocks -destination mocks/interface.go -source=interface.go
//go:generate mockgen -package mocks -destination mocks/sdk_s3api.go github.com/aws/aws-sdk-go/service/s3/s3iface S3API
package s3

import (
	"errors"
	"io"
)

// ErrKeyNotFound is returned by Getter implementations for missing keys.
var ErrKeyNotFound = errors.New("key not found")

// BasicClient groups the object store operations used by the bucket
// components and the stage loaders.
type BasicClient interface {
	Lister
	Getter
	Putter
	BufferPutter
	Deleter
}

type Lister interface {
	List(key string) (keys []string, err error)
}

type Getter interface {
	// Get returns ErrKeyNotFound if the given key doesn't exist.
	Get(key string) (data []byte, err error)
}

type Putter interface {
	Put(key string, data []byte) (err error)
}

// BufferPutter uploads from any ReadSeeker, which covers os.File for the
// CSV spool files.
type BufferPutter interface {
	BufferPut(key string, buf io.ReadSeeker) (err error)
}

type Deleter interface {
	Delete(key string) error
}
