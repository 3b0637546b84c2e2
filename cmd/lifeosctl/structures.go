package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/p-blackswan/lifeos/internal/structure"
	"github.com/p-blackswan/lifeos/internal/workspace"
)

func addStructures(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:     "structures",
		Aliases: []string{"structure", "s"},
		Short:   "List and edit structures",
		Example: `
lifeosctl structures
lifeosctl structures create "Reading" --levels Shelf,Book,Chapter
lifeosctl structures create --template okr
lifeosctl structures select Reading
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listStructures(cmd.Context(), a)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List structures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listStructures(cmd.Context(), a)
		},
	})

	addStructureCreate(cmd, a)

	cmd.AddCommand(&cobra.Command{
		Use:   "levels <structure> <level>...",
		Short: "Replace the levels of a structure",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			s, err := findStructure(a.ws, args[0])
			if err != nil {
				return err
			}
			updated, err := a.ws.UpdateLevels(ctx, s.ID, splitLevels(args[1:]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", updated.Name, strings.Join(updated.Levels, " > "))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "delete <structure>",
		Aliases: []string{"rm"},
		Short:   "Delete a structure",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			s, err := findStructure(a.ws, args[0])
			if err != nil {
				return err
			}
			if err := a.ws.Delete(ctx, s.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", s.Name)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "select <structure>",
		Short: "Scope the sidebar to a structure, or back to the main menu if it already is",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			s, err := findStructure(a.ws, args[0])
			if err != nil {
				return err
			}
			if _, err := a.ws.Select(ctx, s.ID); err != nil {
				return err
			}
			return showSidebar(ctx, a, "")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "deselect",
		Short: "Return the sidebar to the main menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			if err := a.ws.Deselect(ctx); err != nil {
				return err
			}
			return showSidebar(ctx, a, "")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "expand <structure>",
		Short: "Expand or collapse a structure in the main menu",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			s, err := findStructure(a.ws, args[0])
			if err != nil {
				return err
			}
			if _, err := a.ws.ToggleExpanded(ctx, s.ID); err != nil {
				return err
			}
			return showSidebar(ctx, a, "")
		},
	})

	topLevel.AddCommand(cmd)
}

func addStructureCreate(parent *cobra.Command, a *app) {
	var (
		levels   []string
		template string
	)

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a structure from levels or from a template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}

			var name string
			if len(args) == 1 {
				name = args[0]
			}

			var (
				s   structure.Structure
				err error
			)
			if template != "" {
				if len(levels) > 0 {
					return errors.New("--levels and --template are mutually exclusive")
				}
				raw, err := a.client.CreateStructureFromTemplate(ctx, template, name)
				if err != nil {
					return err
				}
				s = structure.FromAPI(raw)
			} else {
				s, err = a.ws.Create(ctx, structure.Draft{Name: name, Levels: splitLevels(levels)})
				if err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s): %s\n", s.Name, s.ID, strings.Join(s.Levels, " > "))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&levels, "levels", "l", nil, "comma separated level labels, top level first")
	cmd.Flags().StringVarP(&template, "template", "t", "", "create from a template (see lifeosctl templates)")
	parent.AddCommand(cmd)
}

func listStructures(ctx context.Context, a *app) error {
	if err := a.load(ctx); err != nil {
		return err
	}
	mode, err := a.ws.Mode(ctx)
	if err != nil {
		return err
	}
	a.printer.Structures(a.ws.Structures(), mode)
	return nil
}

// findStructure matches ref against IDs first, then names ignoring case.
func findStructure(ws *workspace.Workspace, ref string) (structure.Structure, error) {
	if s, ok := ws.Get(ref); ok {
		return s, nil
	}
	for _, s := range ws.Structures() {
		if strings.EqualFold(s.Name, ref) {
			return s, nil
		}
	}
	return structure.Structure{}, fmt.Errorf("structure %q: %w", ref, workspace.ErrUnknownStructure)
}

// splitLevels accepts both "A,B" and "A" "B".
func splitLevels(args []string) []string {
	var out []string
	for _, arg := range args {
		out = append(out, strings.Split(arg, ",")...)
	}
	return out
}
