// Package cli holds shared helpers for the brandforged command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// FlagDoc describes one flag in the machine-readable help output.
type FlagDoc struct {
	Name      string `json:"name"`
	Shorthand string `json:"shorthand,omitempty"`
	Type      string `json:"type"`
	Default   string `json:"default,omitempty"`
	Usage     string `json:"usage,omitempty"`
}

// CommandDoc describes a command and its subtree.
type CommandDoc struct {
	Name     string       `json:"name"`
	Summary  string       `json:"summary,omitempty"`
	Details  string       `json:"details,omitempty"`
	Flags    []FlagDoc    `json:"flags,omitempty"`
	Commands []CommandDoc `json:"commands,omitempty"`
}

// Describe walks a cobra command into a CommandDoc tree, skipping the
// built-in help machinery.
func Describe(cmd *cobra.Command) CommandDoc {
	doc := CommandDoc{
		Name:    cmd.Name(),
		Summary: cmd.Short,
		Details: cmd.Long,
	}

	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "help" || f.Name == "help-json" {
			return
		}
		doc.Flags = append(doc.Flags, FlagDoc{
			Name:      f.Name,
			Shorthand: f.Shorthand,
			Type:      f.Value.Type(),
			Default:   f.DefValue,
			Usage:     f.Usage,
		})
	})

	for _, sub := range cmd.Commands() {
		if sub.Hidden || sub.Name() == "help" {
			continue
		}
		doc.Commands = append(doc.Commands, Describe(sub))
	}

	return doc
}

// AddHelpJSONFlag registers --help-json on the command tree.
func AddHelpJSONFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool("help-json", false, "Print the command schema as JSON")
}

// CheckHelpJSON scans os.Args for --help-json and, when present, prints
// the schema of the addressed subcommand and exits. Runs before
// Execute so the flag works without valid positional args.
func CheckHelpJSON(root *cobra.Command) {
	for i, arg := range os.Args {
		if arg != "--help-json" {
			continue
		}
		target := root
		for _, name := range os.Args[1:i] {
			if sub := childByName(target, name); sub != nil {
				target = sub
			}
		}
		out, err := json.MarshalIndent(Describe(target), "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to build command schema: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		os.Exit(0)
	}
}

func childByName(cmd *cobra.Command, name string) *cobra.Command {
	for _, sub := range cmd.Commands() {
		if sub.Name() == name || sub.HasAlias(name) {
			return sub
		}
	}
	return nil
}
