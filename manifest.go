package kinetic

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Model declares a loadable model asset.
type Model struct {
	ID   string `yaml:"id"`
	Path string `yaml:"path"`
}

// Font declares a loadable font asset.
type Font struct {
	ID   string `yaml:"id"`
	Path string `yaml:"path"`
}

// Image declares a loadable texture asset together with the card size image
// instances render it on.
type Image struct {
	ID     string  `yaml:"id"`
	Path   string  `yaml:"path"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Manifest declares the assets an engine can bind instances to. The YAML
// form keeps asset lists out of code:
//
//	models:
//	  - id: ship
//	    path: assets/ship.png
//	fonts:
//	  - id: hud
//	    path: assets/hud.ttf
//	images:
//	  - id: splash
//	    path: assets/splash.png
//	    width: 320
//	    height: 200
type Manifest struct {
	Models []Model `yaml:"models"`
	Fonts  []Font  `yaml:"fonts"`
	Images []Image `yaml:"images"`
}

// LoadManifest reads and parses a YAML asset manifest. Duplicate ids within
// a section are rejected.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kinetic: read manifest %s: %w", path, err)
	}
	return ParseManifest(data)
}

// ParseManifest parses YAML manifest bytes.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("kinetic: parse manifest: %w", err)
	}
	seen := make(map[string]string)
	check := func(section, id string) error {
		if id == "" {
			return fmt.Errorf("kinetic: manifest: %s entry with empty id", section)
		}
		if _, ok := seen[section+"/"+id]; ok {
			return fmt.Errorf("kinetic: manifest: duplicate %s id %q", section, id)
		}
		seen[section+"/"+id] = id
		return nil
	}
	for _, model := range m.Models {
		if err := check("model", model.ID); err != nil {
			return nil, err
		}
	}
	for _, font := range m.Fonts {
		if err := check("font", font.ID); err != nil {
			return nil, err
		}
	}
	for _, image := range m.Images {
		if err := check("image", image.ID); err != nil {
			return nil, err
		}
	}
	return &m, nil
}
