package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"prodplan/internal/quantity"
	"prodplan/internal/recipe"
	"prodplan/internal/recipedb"
)

func recipesCmd() *cli.Command {
	return &cli.Command{
		Name:  "recipes",
		Usage: "Query the recipe snapshot from the last ingest, multi-product recipes included",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db",
				Usage: "Recipe SQLite DB to read (default: <workspace>/data/recipes.sqlite)",
			},
			&cli.StringFlag{
				Name:  "producers",
				Usage: "Only print the names of recipes producing this item",
			},
			&cli.StringFlag{
				Name:  "category",
				Usage: "Only list recipes in this category",
			},
		},
		Action: runRecipes,
	}
}

func runRecipes(ctx context.Context, cmd *cli.Command) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	dbPath, err := s.path(cmd.String("db"), s.ws.RecipeDBPath)
	if err != nil {
		return err
	}
	store, err := recipedb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no recipes in %s (run '%s ingest' first?)", dbPath, appName)
	}

	if item := strings.TrimSpace(cmd.String("producers")); item != "" {
		names, err := store.Producers(ctx, item)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return fmt.Errorf("no recipe produces %q", item)
		}
		for _, name := range names {
			fmt.Fprintln(s.out, name)
		}
		return nil
	}

	category := strings.TrimSpace(cmd.String("category"))
	if category != "" {
		known, err := store.Categories(ctx)
		if err != nil {
			return err
		}
		if !contains(known, category) {
			return fmt.Errorf("unknown category %q (known: %s)", category, strings.Join(known, ", "))
		}
	}
	recipes, err := store.List(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCATEGORY\tTIME\tPRODUCTS\tINGREDIENTS")
	shown := 0
	for _, r := range recipes {
		if category != "" && r.Category != category {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Name, r.Category, quantity.Format(r.CycleTime, 3),
			components(r.Products), components(r.Ingredients))
		shown++
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%d of %d recipes\n", shown, n)
	return nil
}

func components(cs []recipe.Component) string {
	if len(cs) == 0 {
		return "-"
	}
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = quantity.Format(c.Amount, 3) + " x " + c.Name
	}
	return strings.Join(parts, ", ")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
