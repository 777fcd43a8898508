package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SymbolMapFile is the YAML layout of PRICE_SYMBOL_MAP_FILE:
//
//	symbols:
//	  GHST: aavegotchi
//	  SAND: the-sandbox
type SymbolMapFile struct {
	Symbols map[string]string `yaml:"symbols"`
}

// LoadSymbolMap reads extra symbol to price-id mappings. An empty path yields
// an empty map.
func LoadSymbolMap(path string) (map[string]string, error) {
	out := make(map[string]string)
	if path == "" {
		return out, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read symbol map: %w", err)
	}

	var file SymbolMapFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse symbol map %s: %w", path, err)
	}

	for symbol, id := range file.Symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		id = strings.TrimSpace(id)
		if symbol == "" || id == "" {
			continue
		}
		out[symbol] = id
	}
	return out, nil
}
