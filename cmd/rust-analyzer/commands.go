package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	analyzer "github.com/max-frai/rust-analyzer"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the module tree of every crate",
	Args:  cobra.NoArgs,
	RunE:  runTree,
}

func runTree(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	a := ws.host.Analysis()
	for _, crate := range a.Crates() {
		root, err := crate.RootModule()
		if err != nil {
			return fmt.Errorf("crate %d: %w", crate.ID(), err)
		}
		if root == nil {
			continue
		}
		src, err := root.DefinitionSource()
		if err != nil {
			return err
		}
		fmt.Printf("crate %d (%s)\n", crate.ID(), src.Path)
		if err := printModule(*root, 1, map[analyzer.Module]bool{}); err != nil {
			return err
		}
	}
	return nil
}

func printModule(m analyzer.Module, depth int, seen map[analyzer.Module]bool) error {
	if seen[m] {
		return nil
	}
	seen[m] = true
	children, err := m.Children()
	if err != nil {
		return err
	}
	for _, child := range children {
		name, err := child.Name()
		if err != nil {
			return err
		}
		src, err := child.DefinitionSource()
		if err != nil {
			return err
		}
		fmt.Printf("%smod %s (%s)\n", strings.Repeat("  ", depth), name, src.Path)
		if err := printModule(child, depth+1, seen); err != nil {
			return err
		}
	}
	return nil
}

var flagFrom string

var resolveCmd = &cobra.Command{
	Use:   "resolve PATH",
	Short: "Resolve an item path and print the namespace pair",
	Long:  "Resolves a `::`-separated path (e.g. crate::foo::Bar) against a module. By default resolution starts at the first crate's root module; --from selects a submodule by name chain.",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&flagFrom, "from", "", "starting module as a ::-separated name chain from the crate root")
}

func runResolve(cmd *cobra.Command, args []string) error {
	path, err := analyzer.ParsePath(args[0])
	if err != nil {
		return err
	}
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	a := ws.host.Analysis()
	start, err := startingModule(a)
	if err != nil {
		return err
	}
	if start == nil {
		return fmt.Errorf("no crate found in workspace")
	}
	if flagFrom != "" {
		for _, seg := range strings.Split(flagFrom, "::") {
			child, err := start.Child(seg)
			if err != nil {
				return err
			}
			if child == nil {
				return fmt.Errorf("no module %q under the crate root", flagFrom)
			}
			start = child
		}
	}

	per, err := start.ResolvePath(path)
	if err != nil {
		return err
	}
	if per.IsNone() {
		fmt.Println("unresolved")
		return nil
	}
	if def, ok := per.Types(); ok {
		if err := printSlot("types ", def); err != nil {
			return err
		}
	}
	if def, ok := per.Values(); ok {
		if err := printSlot("values", def); err != nil {
			return err
		}
	}
	return nil
}

func printSlot(slot string, def analyzer.Def) error {
	src, err := def.Source()
	if err != nil {
		return err
	}
	fmt.Printf("%s  %-12s %s:%d:%d\n", slot, def.Kind(), src.Path, src.Range.StartLine+1, src.Range.StartCol+1)
	return nil
}

func startingModule(a *analyzer.Analysis) (*analyzer.Module, error) {
	for _, crate := range a.Crates() {
		root, err := crate.RootModule()
		if err != nil {
			return nil, err
		}
		if root != nil {
			return root, nil
		}
	}
	return nil, nil
}

var problemsCmd = &cobra.Command{
	Use:   "problems",
	Short: "Print module-layout problems with suggested filesystem fixes",
	Args:  cobra.NoArgs,
	RunE:  runProblems,
}

func runProblems(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	n, err := printProblems(ws.host.Analysis())
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Println("no problems")
	}
	return nil
}

// printProblems walks every crate and prints each problem as a message plus
// the mechanically derived filesystem fix.
func printProblems(a *analyzer.Analysis) (int, error) {
	count := 0
	for _, crate := range a.Crates() {
		root, err := crate.RootModule()
		if err != nil {
			return count, err
		}
		if root == nil {
			continue
		}
		err = walkModules(*root, map[analyzer.Module]bool{}, func(m analyzer.Module) error {
			problems, err := m.Problems()
			if err != nil {
				return err
			}
			for _, p := range problems {
				count++
				declPath, _ := a.FilePath(p.File)
				switch p.Kind {
				case analyzer.ProblemUnresolvedModule:
					fmt.Printf("%s:%d: unresolved module\n", declPath, p.Range.StartLine+1)
					fmt.Printf("  fix: create file %s\n", p.Candidate)
				case analyzer.ProblemNotDirOwner:
					fmt.Printf("%s:%d: can't declare module at this location\n", declPath, p.Range.StartLine+1)
					fmt.Printf("  fix: move %s to %s, then create %s\n", declPath, p.MoveTo, p.Candidate)
				}
			}
			return nil
		})
		if err != nil {
			return count, err
		}
	}
	return count, nil
}

func walkModules(m analyzer.Module, seen map[analyzer.Module]bool, visit func(analyzer.Module) error) error {
	if seen[m] {
		return nil
	}
	seen[m] = true
	if err := visit(m); err != nil {
		return err
	}
	children, err := m.Children()
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := walkModules(child, seen, visit); err != nil {
			return err
		}
	}
	return nil
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols NAME",
	Short: "Find workspace definitions with the exact given name",
	Args:  cobra.ExactArgs(1),
	RunE:  runSymbols,
}

func runSymbols(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	hits, err := ws.host.Analysis().Symbols(args[0])
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, hit := range hits {
		origin := ""
		if hit.Library {
			origin = " (library)"
		}
		fmt.Printf("%-12s %s %s:%d:%d%s\n", hit.Kind, hit.Name,
			hit.Location.Path, hit.Location.Range.StartLine+1, hit.Location.Range.StartCol+1, origin)
	}
	return nil
}
