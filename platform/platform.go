// Package platform discovers target-platform versions and assembles the
// classpaths used to compile and run code against them.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// DirPrefix identifies platform-version directories under the platforms root.
const DirPrefix = "platform-"

// Version identifies one target-platform release. Immutable once discovered.
type Version struct {
	Name     string // directory base name, e.g. "platform-33.0"
	Version  string // human-readable version string, e.g. "33.0"
	Revision int    // integer revision extracted from the version string
	Dir      string // absolute path of the dependency-archive directory
}

// Discover scans root for platform-version directories and returns them
// sorted by version, lowest first. The returned set is read-only for the
// remainder of the process.
func Discover(root string) ([]Version, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading platforms root %s: %w", root, err)
	}

	var versions []Version
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), DirPrefix) {
			continue
		}
		ver := strings.TrimPrefix(entry.Name(), DirPrefix)
		rev, err := Revision(ver)
		if err != nil {
			return nil, fmt.Errorf("platform directory %s: %w", entry.Name(), err)
		}
		dir, err := filepath.Abs(filepath.Join(root, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", entry.Name(), err)
		}
		versions = append(versions, Version{
			Name:     entry.Name(),
			Version:  ver,
			Revision: rev,
			Dir:      dir,
		})
	}
	sort.Slice(versions, func(i, j int) bool {
		return semver.Compare("v"+versions[i].Version, "v"+versions[j].Version) < 0
	})
	return versions, nil
}

// Revision extracts the integer revision leading a version string,
// e.g. "33.0" yields 33.
func Revision(version string) (int, error) {
	i := 0
	for i < len(version) && version[i] >= '0' && version[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, fmt.Errorf("version %q has no leading revision number", version)
	}
	return strconv.Atoi(version[:i])
}

// Archives lists the dependency archives of the version directory as
// absolute paths in lexical order.
func (v Version) Archives() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(v.Dir, "*.jar"))
	if err != nil {
		return nil, fmt.Errorf("listing archives of %s: %w", v.Name, err)
	}
	return matches, nil
}
