// Package catalogs loads the design catalogs (ships, stations, buildings,
// shipyards and production facilities) from a config directory.
package catalogs

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"supremacy.ai/internal/sim/galaxy"
)

type Catalogs struct {
	Designs *galaxy.Designs

	// Digests holds the sha256 of each catalog file by file name. Digest
	// covers all of them in load order.
	Digests map[string]string
	Digest  string
}

const (
	shipsFile      = "ships.json"
	stationsFile   = "stations.json"
	buildingsFile  = "buildings.json"
	shipyardsFile  = "shipyards.json"
	facilitiesFile = "facilities.json"
)

func Load(configDir string) (*Catalogs, error) {
	c := &Catalogs{Designs: galaxy.NewDesigns(), Digests: map[string]string{}}
	d := c.Designs
	var all bytes.Buffer

	load := func(name string, fn func(raw []byte) error) error {
		raw, err := os.ReadFile(filepath.Join(configDir, name))
		if err != nil {
			return err
		}
		c.Digests[name] = sha256Hex(raw)
		all.Write(raw)
		all.WriteByte('\n')
		if err := fn(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}

	if err := load(shipsFile, func(raw []byte) error {
		return decodeKeyed(raw, d.Ships, func(s *galaxy.ShipDesign) string { return s.Key })
	}); err != nil {
		return nil, err
	}
	if err := load(stationsFile, func(raw []byte) error {
		return decodeKeyed(raw, d.Stations, func(s *galaxy.StationDesign) string { return s.Key })
	}); err != nil {
		return nil, err
	}
	if err := load(buildingsFile, func(raw []byte) error {
		return decodeKeyed(raw, d.Buildings, func(b *galaxy.BuildingDesign) string { return b.Key })
	}); err != nil {
		return nil, err
	}
	if err := load(shipyardsFile, func(raw []byte) error {
		return decodeKeyed(raw, d.Shipyards, func(s *galaxy.ShipyardDesign) string { return s.Key })
	}); err != nil {
		return nil, err
	}
	if err := load(facilitiesFile, func(raw []byte) error { return loadFacilities(raw, d) }); err != nil {
		return nil, err
	}

	if err := validate(d); err != nil {
		return nil, err
	}
	c.Digest = sha256Hex(all.Bytes())
	return c, nil
}

// decodeKeyed unmarshals a JSON array into out, rejecting empty and
// duplicate keys.
func decodeKeyed[T any](raw []byte, out map[string]*T, key func(*T) string) error {
	var defs []*T
	if err := json.Unmarshal(raw, &defs); err != nil {
		return err
	}
	for i, def := range defs {
		k := key(def)
		if k == "" {
			return fmt.Errorf("entry %d: empty key", i)
		}
		if _, dup := out[k]; dup {
			return fmt.Errorf("duplicate key %q", k)
		}
		out[k] = def
	}
	return nil
}

func loadFacilities(raw []byte, d *galaxy.Designs) error {
	var defs []*galaxy.FacilityDesign
	if err := json.Unmarshal(raw, &defs); err != nil {
		return err
	}
	for _, fd := range defs {
		if _, dup := d.Facilities[fd.Category]; dup {
			return fmt.Errorf("duplicate facility for %s", fd.Category)
		}
		d.Facilities[fd.Category] = fd
	}
	return nil
}

func validate(d *galaxy.Designs) error {
	for k, s := range d.Ships {
		if s.Speed <= 0 || s.Hull <= 0 {
			return fmt.Errorf("%s: ship %s needs positive speed and hull", shipsFile, k)
		}
		if s.BuildCost <= 0 {
			return fmt.Errorf("%s: ship %s has no build cost", shipsFile, k)
		}
	}
	for k, s := range d.Stations {
		if s.Hull <= 0 || s.BuildCost <= 0 {
			return fmt.Errorf("%s: station %s needs positive hull and build cost", stationsFile, k)
		}
	}
	for k, y := range d.Shipyards {
		if y.BuildSlots < 1 {
			return fmt.Errorf("%s: shipyard %s has no build slots", shipyardsFile, k)
		}
	}
	for _, cat := range []galaxy.ProductionCategory{galaxy.ProdFood, galaxy.ProdIndustry, galaxy.ProdEnergy} {
		if d.Facilities[cat] == nil {
			return fmt.Errorf("%s: missing %s facility", facilitiesFile, cat)
		}
	}
	return nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
