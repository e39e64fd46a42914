package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const initialConfig = `# blogsmith configuration
extensions:
  - title
  - timestamps
  - tags
  - folding
  - render-markdown
  - links
  - paginate

entries_dir: entries
entry_ext: .html
template_dir: templates
`

const initialMetadata = `name: My Blog
description: A blog built with blogsmith
root_url: http://localhost:8000
`

const initialEntry = `Welcome
This entry lives in the entries directory. The first line is the title; the
text above the fold marker becomes the short form on index pages.
<!-- FOLD -->
Everything below the marker only shows on the entry's own page.
`

// runInit scaffolds the working directory: config file, blog metadata,
// entries directory with a welcome entry.
func runInit(logger *slog.Logger, force bool) error {
	files := map[string]string{
		"config.yaml": initialConfig,
		"blog.yaml":   initialMetadata,
		filepath.Join("entries", "welcome.html"): initialEntry,
	}

	fmt.Println("Initializing blogsmith site")
	for path, content := range files {
		if !force {
			if _, err := os.Stat(path); err == nil {
				fmt.Printf("%s already exists, skipping (use --force to overwrite)\n", path)
				continue
			}
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
		fmt.Printf("Writing %s\n", path)
		logger.Debug("scaffolded file", "path", path)
	}
	fmt.Println("initialized successfully")
	return nil
}
