package config

import "sort"

// Presets are named lattice working points. All of them place the
// separatrix inside the default search bracket.
var Presets = map[string]LatticeConfig{
	"nominal": DefaultLattice(),
	"near-resonance": {
		Tune: 0.338, Sextupole: 40, Beta: 10, Alpha: 0.5, Aperture: 0.1,
	},
	"below-resonance": {
		Tune: 0.329, Sextupole: 40, Beta: 10, Alpha: 0.5, Aperture: 0.1,
	},
	"weak-sextupole": {
		Tune: 0.3433, Sextupole: 25, Beta: 10, Alpha: 0.5, Aperture: 0.1,
	},
	"strong-sextupole": {
		Tune: 0.3433, Sextupole: 60, Beta: 10, Alpha: 0.5, Aperture: 0.1,
	},
	"high-beta": {
		Tune: 0.3433, Sextupole: 40, Beta: 20, Alpha: -1.2, Aperture: 0.1,
	},
}

// GetPreset returns the default configuration at the named working point,
// or nil if there is no such preset.
func GetPreset(name string) *Config {
	l, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Lattice = l
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
