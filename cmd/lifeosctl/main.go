package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "lifeosctl",
		Short: "Work with your LifeOS structures from the terminal",
		Long: `lifeosctl talks to a LifeOS server. It keeps the sidebar state
(selected structure, expanded structures) in a local state directory
so that it survives between invocations.

Configuration is read from LIFEOSCTL_* environment variables.`,
		SilenceUsage: true,
	}

	addStructures(rootCmd, a)
	addTemplates(rootCmd, a)
	addNav(rootCmd, a)
	addHabits(rootCmd, a)
	addGoals(rootCmd, a)
	addCalendar(rootCmd, a)
	addToken(rootCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
