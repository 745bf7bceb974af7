// Command iofn lists the builtin functions of a package as YAML slot tables.
//
// A builtin is any package-level function assignable to the core's Fn or
// HostFn type. The output maps each slot name, derived from the function name
// with the -match prefix removed, to the function and its kind:
//
//	$ iofn -match '^List' github.com/zephyrtronium/iocore/internal
//	append:
//	  fn: ListAppend
//	  kind: HostFn
package main

import (
	"flag"
	"fmt"
	"go/token"
	"go/types"
	"os"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
	"gopkg.in/yaml.v2"
)

// entry is one listed builtin.
type entry struct {
	Fn   string `yaml:"fn"`
	Kind string `yaml:"kind"`
}

func main() {
	var match, ignore string
	var core string
	flag.StringVar(&match, "match", ".", "include only functions matching this regular expression")
	flag.StringVar(&ignore, "ignore", "$^", "exclude functions matching this regular expression")
	flag.StringVar(&core, "core", "github.com/zephyrtronium/iocore/internal", "import path of the package defining Fn and HostFn")
	flag.Parse()
	mre, err := regexp.Compile(match)
	if err != nil {
		fail("error compiling match:", err)
	}
	ire, err := regexp.Compile(ignore)
	if err != nil {
		fail("error compiling ignore:", err)
	}

	fset := token.NewFileSet()
	config := packages.Config{Mode: packages.NeedName | packages.NeedTypes | packages.NeedSyntax | packages.NeedImports, Fset: fset}
	pkgs, err := packages.Load(&config, append([]string{core}, flag.Args()...)...)
	if err != nil {
		fail("error loading packages:", err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		os.Exit(1)
	}
	kinds := getKinds(pkgs[0])
	if len(pkgs) > 1 {
		pkgs = pkgs[1:]
	}
	results := make(map[string]entry)
	for _, pkg := range pkgs {
		for _, name := range find(pkg.Types.Scope(), kinds, mre, ire) {
			results[trimMatch(name.fn, mre)] = entry{Fn: name.fn, Kind: name.kind}
		}
	}
	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(yaml.MapSlice, 0, len(keys))
	for _, k := range keys {
		out = append(out, yaml.MapItem{Key: k, Value: results[k]})
	}
	b, err := yaml.Marshal(out)
	if err != nil {
		fail("error encoding results:", err)
	}
	os.Stdout.Write(b)
}

func fail(args ...interface{}) {
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}

// getKinds finds the function types that builtins have.
func getKinds(pkg *packages.Package) map[string]types.Type {
	kinds := make(map[string]types.Type, 2)
	for _, name := range []string{"Fn", "HostFn"} {
		r := pkg.Types.Scope().Lookup(name)
		if r == nil {
			fail(pkg.Name, "has no definition of", name)
		}
		t, ok := r.(*types.TypeName)
		if !ok {
			fail(pkg.Name, "has incorrect definition of", name+":", r)
		}
		kinds[name] = t.Type().Underlying()
	}
	return kinds
}

type found struct {
	fn, kind string
}

func find(pkg *types.Scope, kinds map[string]types.Type, mre, ire *regexp.Regexp) []found {
	var r []found
	for _, name := range pkg.Names() {
		if !mre.MatchString(name) || ire.MatchString(name) {
			continue
		}
		obj := pkg.Lookup(name)
		if _, ok := obj.(*types.Func); !ok {
			continue
		}
		for kind, fn := range kinds {
			if types.AssignableTo(obj.Type(), fn) {
				r = append(r, found{fn: name, kind: kind})
				break
			}
		}
	}
	return r
}

func trimMatch(name string, mre *regexp.Regexp) string {
	if mre.String() != "." {
		k := mre.FindStringIndex(name)
		name = name[k[1]:]
	}
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}
