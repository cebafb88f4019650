//go:build mage

// Package main contains Mage build targets for cad-bridge developer tooling.
// Implements: docs/ARCHITECTURE § Developer Tooling.
package main

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Init creates the local directories cad-bridge reads at runtime.
// .secrets/ holds onshape-access-key and onshape-secret-key; state/ is the
// conventional home of the outcome ledger.
func Init() error {
	dirs := []struct {
		path string
		perm os.FileMode
	}{
		{".secrets", 0o700},
		{"state", 0o755},
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d.path, d.perm); err != nil {
			return fmt.Errorf("creating %s: %w", d.path, err)
		}
		fmt.Println("  ", d.path)
	}
	fmt.Println("Put your Onshape API keys in .secrets/onshape-access-key and .secrets/onshape-secret-key.")
	return nil
}

const (
	binDir  = "bin"
	binName = "cad-bridge"
	cmdPkg  = "./cmd/cad-bridge"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "-count=1", "./...")
}

// Lint runs go vet over every package.
func Lint() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs Lint, Docs and Test.
func Check() {
	mg.SerialDeps(Lint, Docs, Test)
}

const architectureDoc = "docs/ARCHITECTURE.md"

// Docs verifies that every section reference to the architecture document
// in non-test Go source names one of its headings.
func Docs() error {
	broken, err := brokenDocRefs(".")
	if err != nil {
		return err
	}
	for _, b := range broken {
		fmt.Println("  ", b)
	}
	if len(broken) > 0 {
		return fmt.Errorf("%d broken reference(s) to %s", len(broken), architectureDoc)
	}
	fmt.Println("Architecture references OK.")
	return nil
}

var (
	sectionRef = regexp.MustCompile(`§ ([A-Z][A-Za-z ]*[A-Za-z])`)
	headingRE  = regexp.MustCompile(`(?m)^#{2,3} (.+?)\s*$`)
)

// brokenDocRefs returns "file: § Section" for each reference under root
// whose section is not a heading of the architecture document.
func brokenDocRefs(root string) ([]string, error) {
	doc, err := os.ReadFile(filepath.Join(root, architectureDoc))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", architectureDoc, err)
	}
	headings := map[string]bool{}
	for _, m := range headingRE.FindAllStringSubmatch(string(doc), -1) {
		headings[m[1]] = true
	}

	var broken []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, line := range strings.Split(string(data), "\n") {
			if !strings.Contains(line, "docs/ARCHITECTURE") {
				continue
			}
			for _, m := range sectionRef.FindAllStringSubmatch(line, -1) {
				if !headings[m[1]] {
					rel, _ := filepath.Rel(root, path)
					broken = append(broken, filepath.ToSlash(rel)+": § "+m[1])
				}
			}
		}
		return nil
	})
	return broken, err
}

// Stats prints non-blank Go lines per package, split into production and
// test code, followed by module totals.
func Stats() error {
	stats, err := packageStats(".")
	if err != nil {
		return err
	}

	var prod, test int
	fmt.Printf("%-22s  %6s  %6s\n", "Package", "Prod", "Test")
	for _, p := range stats {
		fmt.Printf("%-22s  %6d  %6d\n", p.Dir, p.Prod, p.Test)
		prod += p.Prod
		test += p.Test
	}
	fmt.Printf("%-22s  %6d  %6d\n", "total", prod, test)
	return nil
}

// pkgLines holds line counts for one package directory.
type pkgLines struct {
	Dir  string
	Prod int
	Test int
}

// packageStats counts non-blank lines of Go source under root, grouped by
// directory and sorted by path. Directories the go tool ignores are skipped.
func packageStats(root string) ([]pkgLines, error) {
	byDir := map[string]*pkgLines{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}

		n, err := nonBlankLines(path)
		if err != nil {
			return err
		}
		dir, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return err
		}
		dir = filepath.ToSlash(dir)
		p, ok := byDir[dir]
		if !ok {
			p = &pkgLines{Dir: dir}
			byDir[dir] = p
		}
		if strings.HasSuffix(path, "_test.go") {
			p.Test += n
		} else {
			p.Prod += n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats := make([]pkgLines, 0, len(byDir))
	for _, p := range byDir {
		stats = append(stats, *p)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Dir < stats[j].Dir })
	return stats, nil
}

// skipDir reports whether a directory is ignored by the go tool.
func skipDir(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || name == "testdata"
}

func nonBlankLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	return n, nil
}
