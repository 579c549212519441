package zone

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Source supplies the full list of IANA zone names.
type Source interface {
	Names() ([]string, error)
}

// StaticSource is a fixed zone list.
type StaticSource []string

// Names returns a sorted copy of the list.
func (s StaticSource) Names() ([]string, error) {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out, nil
}

// SystemSource lists the zones installed under the zoneinfo directories.
// With no directory found it falls back to the registry's own cities.
type SystemSource struct {
	Dirs []string
}

// DefaultZoneDirs are the usual zoneinfo locations, preceded by $ZONEINFO.
func DefaultZoneDirs() []string {
	dirs := []string{}
	if env := os.Getenv("ZONEINFO"); env != "" {
		if info, err := os.Stat(env); err == nil && info.IsDir() {
			dirs = append(dirs, env)
		}
	}
	return append(dirs,
		"/usr/share/zoneinfo",
		"/usr/lib/zoneinfo",
		"/usr/share/lib/zoneinfo",
	)
}

// Names walks the first existing directory and keeps names that load.
func (s SystemSource) Names() ([]string, error) {
	dirs := s.Dirs
	if dirs == nil {
		dirs = DefaultZoneDirs()
	}
	for _, dir := range dirs {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		var zones []string
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return nil
			}
			name := filepath.ToSlash(rel)
			if !Listable(name) {
				return nil
			}
			if _, err := time.LoadLocation(name); err == nil {
				zones = append(zones, name)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if len(zones) > 0 {
			sort.Strings(zones)
			return zones, nil
		}
	}
	return builtinZones(), nil
}

// excludedPrefixes are aliases and legacy trees left out of the catalogue.
var excludedPrefixes = []string{"Etc/", "SystemV/", "US/", "posix/", "right/"}

// Listable reports whether a zone name belongs in the search catalogue:
// an Area/Location name outside the legacy and alias trees.
func Listable(name string) bool {
	if !strings.Contains(name, "/") {
		return false
	}
	first := name[0]
	if first < 'A' || first > 'Z' {
		return false
	}
	for _, p := range excludedPrefixes {
		if strings.HasPrefix(name, p) {
			return false
		}
	}
	return !strings.HasSuffix(name, ".tab") && !strings.HasSuffix(name, ".zi")
}

func builtinZones() []string {
	seen := map[string]bool{}
	var zones []string
	for _, group := range [][]City{majorCities, knownCities} {
		for _, c := range group {
			if !seen[c.ZoneID] {
				seen[c.ZoneID] = true
				zones = append(zones, c.ZoneID)
			}
		}
	}
	sort.Strings(zones)
	return zones
}
