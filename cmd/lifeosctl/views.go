package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/p-blackswan/lifeos/internal/apiclient"
	"github.com/p-blackswan/lifeos/internal/nav"
	"github.com/p-blackswan/lifeos/internal/retry"
	"github.com/p-blackswan/lifeos/internal/stats"
)

func addTemplates(topLevel *cobra.Command, a *app) {
	topLevel.AddCommand(&cobra.Command{
		Use:   "templates",
		Short: "List the structure templates the server offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.setup(ctx); err != nil {
				return err
			}
			list, err := retry.DoValue(ctx, a.retry, a.client.Templates)
			if err != nil {
				return err
			}
			a.printer.Templates(list)
			return nil
		},
	})
}

func addNav(topLevel *cobra.Command, a *app) {
	var collapse bool

	cmd := &cobra.Command{
		Use:   "nav [path]",
		Short: "Show the sidebar as it renders for a page",
		Example: `
lifeosctl nav
lifeosctl nav /habits
lifeosctl nav /s/3f1c.../chapter
lifeosctl nav --collapse
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			if collapse {
				state := a.st
				collapsed, err := state.SidebarCollapsed(ctx)
				if err != nil {
					return err
				}
				if err := state.SetSidebarCollapsed(ctx, !collapsed); err != nil {
					return err
				}
				if !collapsed {
					fmt.Fprintln(cmd.OutOrStdout(), "sidebar collapsed")
					return nil
				}
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return showSidebar(ctx, a, path)
		},
	}

	cmd.Flags().BoolVar(&collapse, "collapse", false, "toggle the collapsed sidebar")
	topLevel.AddCommand(cmd)
}

func showSidebar(ctx context.Context, a *app, path string) error {
	collapsed, err := a.st.SidebarCollapsed(ctx)
	if err != nil {
		return err
	}
	if collapsed {
		fmt.Fprintln(a.printer.Out, "sidebar collapsed (lifeosctl nav --collapse to expand)")
		return nil
	}
	if path == "" {
		path = nav.FallbackRoute
	}
	sb, err := a.ws.Sidebar(ctx, path, nav.DefaultItems())
	if err != nil {
		return err
	}
	a.printer.Sidebar(sb)
	return nil
}

func addHabits(topLevel *cobra.Command, a *app) {
	var date string

	cmd := &cobra.Command{
		Use:   "habits",
		Short: "Show habit streaks and completion rates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			if date != "" {
				if _, err := time.Parse(time.DateOnly, date); err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
			}
			scope, err := a.scope(ctx)
			if err != nil {
				return err
			}
			list, err := retry.DoValue(ctx, a.retry, func(ctx context.Context) ([]stats.HabitStats, error) {
				return a.client.HabitStats(ctx, date, a.tz(), scope)
			})
			if err != nil {
				return err
			}
			a.printer.HabitStats(list)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "compute streaks as of this day (YYYY-MM-DD)")
	topLevel.AddCommand(cmd)
}

func addGoals(topLevel *cobra.Command, a *app) {
	topLevel.AddCommand(&cobra.Command{
		Use:   "goals",
		Short: "Show goal progress for the current scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.load(ctx); err != nil {
				return err
			}
			scope, err := a.scope(ctx)
			if err != nil {
				return err
			}
			summary, err := retry.DoValue(ctx, a.retry, func(ctx context.Context) (stats.ProgressSummary, error) {
				return a.client.GoalProgress(ctx, scope)
			})
			if err != nil {
				return err
			}
			a.printer.GoalProgress(summary)
			return nil
		},
	})
}

func addCalendar(topLevel *cobra.Command, a *app) {
	topLevel.AddCommand(&cobra.Command{
		Use:   "calendar [YYYY-MM]",
		Short: "Show a month grid with event counts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var month string
			if len(args) == 1 {
				if _, err := time.Parse("2006-01", args[0]); err != nil {
					return fmt.Errorf("month must be YYYY-MM: %w", err)
				}
				month = args[0]
			}
			if err := a.load(ctx); err != nil {
				return err
			}
			scope, err := a.scope(ctx)
			if err != nil {
				return err
			}
			cal, err := retry.DoValue(ctx, a.retry, func(ctx context.Context) (apiclient.Calendar, error) {
				return a.client.Calendar(ctx, month, a.tz(), scope)
			})
			if err != nil {
				return err
			}
			a.printer.Calendar(cal)
			return nil
		},
	})
}
