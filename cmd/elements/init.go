package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/elements/internal/config"
	"github.com/vango-dev/elements/internal/errors"
)

const starterManifest = `# Custom element definitions.
- name: x-greeting
  callbacks: [connectedCallback, attributeChangedCallback]
  observedAttributes: [name]
`

const starterDocument = `<!DOCTYPE html>
<html>
<body>
  <x-greeting name="world"></x-greeting>
</body>
</html>
`

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create elements.json with a starter manifest and document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(dir, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing elements.json")

	return cmd
}

func runInit(dir string, force bool) error {
	if config.Exists(dir) && !force {
		return errors.New("E100").
			WithDetail(filepath.Join(dir, config.ConfigFileName) + " already exists").
			WithSuggestion("Pass --force to overwrite it.")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.New("E100").Wrap(err)
	}

	cfg := config.New()
	if err := cfg.SaveTo(filepath.Join(dir, config.ConfigFileName)); err != nil {
		return err
	}
	success("Created %s", cfg.Path())

	starters := map[string]string{
		cfg.Manifest: starterManifest,
		cfg.Document: starterDocument,
	}
	for name, content := range starters {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			info("kept existing %s", path)
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return errors.New("E100").Wrap(err)
		}
		success("Created %s", path)
	}
	return nil
}
