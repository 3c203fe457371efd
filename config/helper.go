package config

import (
	"fmt"
	"os"
	"path"

	"github.com/mitchellh/go-homedir"
)

// mustGetConfigHomeDir resolves the directory that stores all config files,
// caching the result in package variable martPipeHomeDir.
func mustGetConfigHomeDir() string {
	if martPipeHomeDir == "" {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		martPipeHomeDir = path.Join(home, MainDir)
	}
	return martPipeHomeDir
}

// makeDir creates the given directory unless it already exists.
func makeDir(dir string) error {
	_, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		if err = os.Mkdir(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory %v", dir)
		}
	case err != nil:
		return err
	}
	return nil
}
