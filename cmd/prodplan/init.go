package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"prodplan/internal/config"
	"prodplan/internal/workspace"
)

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a new workspace",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "template",
				Value: "minimal",
				Usage: "Workspace template (minimal or empty)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			template := cmd.String("template")
			if template != "minimal" && template != "empty" {
				return fmt.Errorf("unknown template: %s", template)
			}
			if _, err := workspace.Create(cmd.String("workspace")); err != nil {
				return fmt.Errorf("create workspace: %w", err)
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}

			s.event(ctx, "workspace_init_started", map[string]any{
				"workspace": s.ws.Root,
				"template":  template,
			})
			finishErr := initWorkspace(s.ws, template)
			finishPayload := map[string]any{
				"workspace": s.ws.Root,
				"template":  template,
			}
			if finishErr != nil {
				finishPayload["error"] = finishErr.Error()
			}
			s.event(ctx, "workspace_init_finished", finishPayload)
			if finishErr != nil {
				return finishErr
			}

			fmt.Fprintf(s.out, "Initialized workspace: %s\n", s.ws.Root)
			fmt.Fprintln(s.out, "Next steps:")
			fmt.Fprintf(s.out, "  %s --workspace %s ingest\n", appName, s.ws.Root)
			fmt.Fprintf(s.out, "  %s --workspace %s plan --target electronic-circuit --rate 1\n", appName, s.ws.Root)
			return nil
		},
	}
}

func initWorkspace(ws *workspace.Workspace, template string) error {
	if err := ws.EnsureDirs(); err != nil {
		return err
	}
	cfg, err := config.Default().Marshal()
	if err != nil {
		return err
	}
	if err := writeFileIfMissing(ws.ConfigPath, string(cfg)); err != nil {
		return err
	}
	if template == "minimal" {
		if err := writeFileIfMissing(filepath.Join(ws.SourcesDir, "base.lua"), minimalPrototypeTemplate); err != nil {
			return err
		}
	}
	return nil
}

func writeFileIfMissing(path string, contents string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure dir for %s: %w", path, err)
	}
	return os.WriteFile(path, []byte(contents), 0o644)
}

const minimalPrototypeTemplate = `data:extend({
  {
    type = "recipe",
    name = "iron-plate",
    category = "smelting",
    energy_required = 3.2,
    ingredients = {{"iron-ore", 1}},
    result = "iron-plate"
  },
  {
    type = "recipe",
    name = "copper-plate",
    category = "smelting",
    energy_required = 3.2,
    ingredients = {{"copper-ore", 1}},
    result = "copper-plate"
  },
  {
    type = "recipe",
    name = "iron-gear-wheel",
    ingredients = {{"iron-plate", 2}},
    result = "iron-gear-wheel"
  },
  {
    type = "recipe",
    name = "copper-cable",
    ingredients = {{"copper-plate", 1}},
    result = "copper-cable",
    result_count = 2
  },
  {
    type = "recipe",
    name = "electronic-circuit",
    ingredients =
    {
      {"iron-plate", 1},
      {"copper-cable", 3}
    },
    result = "electronic-circuit"
  },
  {
    type = "recipe",
    name = "basic-oil-processing",
    category = "oil-processing",
    enabled = false,
    energy_required = 5,
    ingredients =
    {
      {type = "fluid", name = "crude-oil", amount = 10}
    },
    results =
    {
      {type = "fluid", name = "heavy-oil", amount = 3},
      {type = "fluid", name = "light-oil", amount = 3},
      {type = "fluid", name = "petroleum-gas", amount = 4}
    }
  }
})
`
