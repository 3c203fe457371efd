package actions

import (
	"fmt"

	"github.com/martpipe/martpipe/config"
	"github.com/martpipe/martpipe/helper"
)

type DefaultAddConfig struct {
	ConfigFile *config.File `errorTxt:"config-file" mandatory:"yes"`
	Key        string       `errorTxt:"key" mandatory:"yes"`
	Value      string       `errorTxt:"value" mandatory:"yes"`
	Force      bool
}

type DefaultRemoveConfig struct {
	ConfigFile *config.File `errorTxt:"config-file" mandatory:"yes"`
	Key        string       `errorTxt:"key" mandatory:"yes"`
}

// RunDefaultAdd stores key+value in the given config file. An existing key is
// only overwritten when cfg.Force is set. A missing config file is not an
// error here since Set creates it lazily.
func RunDefaultAdd(cfg *DefaultAddConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	var val string
	// TODO: fix key exist error when it doesn't!
	err := cfg.ConfigFile.Get(cfg.Key, &val)
	switch {
	case err == nil && !cfg.Force: // the key exists and we may not overwrite.
		return fmt.Errorf("key %q exists, use force to update the value or remove it first", cfg.Key)
	case err != nil:
		_, keyNotFound := err.(config.KeyNotFoundError)
		_, fileNotFound := err.(config.FileNotFoundError)
		if !keyNotFound && !fileNotFound {
			return err
		}
	}
	if err := cfg.ConfigFile.Set(cfg.Key, cfg.Value); err != nil {
		return fmt.Errorf("error writing config file after adding: %v", err)
	}
	fmt.Printf("Key %q added to %q\n", cfg.Key, cfg.ConfigFile.FullPath)
	return nil
}

// RunDefaultRemove deletes a key from the given config file.
func RunDefaultRemove(cfg *DefaultRemoveConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	if err := cfg.ConfigFile.Delete(cfg.Key); err != nil {
		return fmt.Errorf("unable to delete key %q from config: %v", cfg.Key, err)
	}
	fmt.Printf("Key %q removed\n", cfg.Key)
	return nil
}
