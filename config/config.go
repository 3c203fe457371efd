package config

import (
	"errors"
	"fmt"
	"path"
	"reflect"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/martpipe/martpipe/rdbms/shared"
	"gopkg.in/yaml.v2"
)

const (
	MainDir                         = ".martpipe"
	MainFileNamePrefix              = "config"
	MainFileNameExt                 = "yaml"
	MainFileFullName                = MainFileNamePrefix + "." + MainFileNameExt
	ConnectionsConfigFileNamePrefix = "connections"
	ConnectionsConfigFileNameExt    = "yaml"
	ConnectionsConfigFileFullName   = ConnectionsConfigFileNamePrefix + "." + ConnectionsConfigFileNameExt
)

var martPipeHomeDir string

// Main holds default flag values; Connections holds named connections.
var Main *File
var Connections *File

// TODO: disable config file operations in twelveFactorMode for performance reasons.

func init() {
	Main = NewConfigFile2WithDir(mustGetConfigHomeDir(), MainFileFullName)
	Connections = NewConfigFile2WithDir(mustGetConfigHomeDir(), ConnectionsConfigFileFullName)
}

// FileNotFoundError denotes failing to find configuration file.
type FileNotFoundError struct {
	name string
}

func (f FileNotFoundError) Error() string {
	return fmt.Sprintf("config file %q not found", f.name)
}

// KeyNotFoundError denotes a key missing from a given config file.
type KeyNotFoundError struct {
	configFile string
	key        string
	err        error
}

func (k KeyNotFoundError) Error() string {
	if k.err != nil {
		return fmt.Sprintf("key %q not found in config file %q: %v", k.key, k.configFile, k.err)
	}
	return fmt.Sprintf("key %q not found in config file %q", k.key, k.configFile)
}

// File is a YAML key-value store persisted via an EncryptedFile. The path
// components are split out up front to keep calling code readable.
type File struct {
	Dirname      string
	FileName     string
	FilePrefix   string
	FileExt      string
	FullPath     string
	data         map[string]interface{}
	dataIsLoaded bool
	f            *EncryptedFile
	mu           sync.Mutex
}

func NewConfigFile2WithDir(dirName string, filename string) *File {
	c := &File{Dirname: dirName, FileName: filename}
	c.FullPath = path.Join(dirName, filename)
	c.FileExt = strings.TrimLeft(path.Ext(filename), ".")
	c.FilePrefix = strings.TrimRight(c.FileName, "."+c.FileExt)
	c.data = make(map[string]interface{})
	c.f = NewEncryptedFileInConfigHomeDir(filename)
	return c
}

// Get decodes the value stored under key into out, which must be a pointer.
// Supported out types are string and shared.ConnectionDetails.
func (c *File) Get(key string, out interface{}) error {
	val := reflect.ValueOf(out)
	if val.Kind() != reflect.Ptr {
		return errors.New("out must be a pointer")
	}
	if err := c.ensureLoaded(false); err != nil {
		return err
	}
	d, ok := c.data[key]
	if !ok { // if the key was not found...
		// TODO: move type-specific error handling to the caller.
		switch v := val.Elem().Interface().(type) {
		case string:
			if v == "" {
				return KeyNotFoundError{c.FullPath, key, fmt.Errorf("missing string value for key")}
			}
		case shared.ConnectionDetails:
			if reflect.DeepEqual(v, shared.ConnectionDetails{}) {
				return KeyNotFoundError{c.FullPath, key, fmt.Errorf("missing database connection")}
			}
		}
	}
	return mapstructure.Decode(d, out)
}

// Set writes key=val and persists the whole file.
func (c *File) Set(key string, val interface{}) error {
	if err := c.ensureLoaded(true); err != nil {
		return err
	}
	c.data[key] = val
	return c.persist(key)
}

// Delete removes key and persists the whole file.
func (c *File) Delete(key string) error {
	if err := c.ensureLoaded(true); err != nil {
		return err
	}
	if _, keyExists := c.data[key]; !keyExists {
		return errors.New("key not found")
	}
	delete(c.data, key)
	return c.persist(key)
}

// GetAllKeys returns the keys present in the file, in no particular order.
// A missing file yields an empty slice.
func (c *File) GetAllKeys() ([]string, error) {
	if err := c.ensureLoaded(true); err != nil {
		return nil, err
	}
	retval := make([]string, 0, len(c.data))
	for k := range c.data {
		retval = append(retval, k)
	}
	return retval, nil
}

// ensureLoaded reads the file into memory once. When tolerateMissingFile is
// set, a missing file is not an error so callers can create it on first write.
func (c *File) ensureLoaded(tolerateMissingFile bool) error {
	if c.dataIsLoaded {
		return nil
	}
	err := c.loadData()
	if err != nil && tolerateMissingFile && errors.As(err, &FileNotFoundError{}) {
		return nil
	}
	return err
}

func (c *File) persist(key string) error {
	b, err := yaml.Marshal(c.data)
	if err != nil {
		return fmt.Errorf("error marshalling data while writing key %v to config file %v: %v", key, c.FullPath, err)
	}
	return c.f.Set(b)
}

func (c *File) loadData() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := c.f.Get()
	if err != nil {
		return err
	}
	if err = yaml.Unmarshal(b, c.data); err != nil {
		return err
	}
	c.dataIsLoaded = true
	return nil
}
