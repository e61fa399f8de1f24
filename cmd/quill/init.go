package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"quill/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a quill.toml manifest and an example unit",
	Long: `Init writes a default quill.toml into dir (the current directory when
omitted) together with an example unit, main.toml. The directory is created
when missing; an existing manifest is never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "."
		if len(args) == 1 {
			target = args[0]
		}
		return initProject(cmd.OutOrStdout(), target)
	},
}

const exampleUnitName = "main.toml"

const exampleUnit = `module = "main"

[[union]]
name = "Shape"

[[union.variant]]
name = "Circle"
items = ["int"]

[[union.variant]]
name = "Rect"
fields = [{ name = "w", type = "int" }, { name = "h", type = "int" }]

[[union.variant]]
name = "Empty"

[[func]]
name = "width"
params = [{ name = "s", type = "Shape" }]
result = "int"
body = '''
match s {
  Shape::Circle(var r) => r,
  Shape::Rect { w: var w } => w,
  Shape::Empty => 0,
}
'''
`

func initProject(out io.Writer, target string) error {
	abs, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	if st, err := os.Stat(abs); err == nil && !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	name := strings.TrimSpace(filepath.Base(abs))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "quill-project"
	}
	manifestPath, err := project.WriteManifest(abs, project.DefaultConfig(name))
	if err != nil {
		return err
	}

	unitPath := filepath.Join(abs, exampleUnitName)
	createdUnit := false
	if _, err := os.Stat(unitPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(unitPath, []byte(exampleUnit), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", exampleUnitName, err)
		}
		createdUnit = true
	}

	fmt.Fprintf(out, "Initialized quill project %q in %s\n", name, filepath.Dir(manifestPath))
	fmt.Fprintf(out, "  - %s\n", project.ManifestName)
	if createdUnit {
		fmt.Fprintf(out, "  - %s\n", exampleUnitName)
	} else {
		fmt.Fprintf(out, "  - %s (existing)\n", exampleUnitName)
	}
	return nil
}
