package models

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"sort"

	"github.com/ghodss/yaml"
)

var builtinPacks = map[string]string{
	"chinook": packChinookYaml,
	"oulad":   packOuladYaml,
}

// ParsePack unmarshals and validates a model pack from YAML.
func ParsePack(raw []byte) (*Pack, error) {
	jsonBytes, err := yaml.YAMLToJSON(raw) // http://ghodss.com/2014/the-right-way-to-handle-yaml-in-golang/
	if err != nil {
		return nil, fmt.Errorf("error reading model pack YAML: %v", err)
	}
	p := &Pack{}
	if err := json.Unmarshal(jsonBytes, p); err != nil {
		return nil, fmt.Errorf("error reading model pack YAML after conversion to JSON: unmarshal errors: %v", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadPackFile reads and parses a model pack from a YAML file.
func LoadPackFile(fileName string) (*Pack, error) {
	raw, err := ioutil.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	return ParsePack(raw)
}

// GetPack returns the builtin pack registered under name, else treats name as
// the path of a YAML pack file.
func GetPack(name string) (*Pack, error) {
	if yamlTxt, ok := builtinPacks[name]; ok {
		return ParsePack([]byte(yamlTxt))
	}
	return LoadPackFile(name)
}

// BuiltinPackNames returns the names of the packs shipped with this tool.
func BuiltinPackNames() []string {
	names := make([]string, 0, len(builtinPacks))
	for name := range builtinPacks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
