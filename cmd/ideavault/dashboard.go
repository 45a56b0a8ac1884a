package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ideavault/internal/vault"
)

const recentLimit = 5

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show vault totals and recent activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		var (
			problemCounts  map[vault.ProblemStatus]int
			ideaCounts     map[vault.IdeaStatus]int
			recentProblems []vault.Problem
			recentIdeas    []vault.Idea
			notes          []vault.Note
		)

		// The dashboard reads are independent.
		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			var err error
			problemCounts, err = store.CountProblemsByStatus(ctx)
			return err
		})
		g.Go(func() error {
			var err error
			ideaCounts, err = store.CountIdeasByStatus(ctx)
			return err
		})
		g.Go(func() error {
			var err error
			recentProblems, err = store.RecentProblems(ctx, recentLimit)
			return err
		})
		g.Go(func() error {
			var err error
			recentIdeas, err = store.RecentIdeas(ctx, recentLimit)
			return err
		})
		g.Go(func() error {
			var err error
			notes, err = store.ListNotes(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()

		problemTotal := 0
		for _, n := range problemCounts {
			problemTotal += n
		}
		ideaTotal := 0
		for _, n := range ideaCounts {
			ideaTotal += n
		}

		fmt.Fprintln(out, colorize(colorBold, fmt.Sprintf("Problems (%d)", problemTotal)))
		printStatusCounts(cmd, []statusCount{
			{"open", problemCounts[vault.ProblemOpen]},
			{"solved", problemCounts[vault.ProblemSolved]},
			{"ignored", problemCounts[vault.ProblemIgnored]},
		})

		fmt.Fprintln(out, colorize(colorBold, fmt.Sprintf("\nIdeas (%d)", ideaTotal)))
		printStatusCounts(cmd, []statusCount{
			{"new", ideaCounts[vault.IdeaNew]},
			{"researching", ideaCounts[vault.IdeaResearching]},
			{"validating", ideaCounts[vault.IdeaValidating]},
			{"building", ideaCounts[vault.IdeaBuilding]},
			{"parked", ideaCounts[vault.IdeaParked]},
		})

		fmt.Fprintln(out, colorize(colorBold, fmt.Sprintf("\nNotes (%d)", len(notes))))

		if len(recentProblems) > 0 {
			fmt.Fprintln(out, colorize(colorBold, "\nRecent problems"))
			for _, p := range recentProblems {
				fmt.Fprintln(out, "  "+problemLine(p))
			}
		}
		if len(recentIdeas) > 0 {
			fmt.Fprintln(out, colorize(colorBold, "\nRecent ideas"))
			for _, i := range recentIdeas {
				fmt.Fprintln(out, "  "+ideaLine(i))
			}
		}
		if len(recentProblems) == 0 && len(recentIdeas) == 0 {
			fmt.Fprintln(out, "\nThe vault is empty. Start with \"ideavault problem add\".")
		}
		return nil
	},
}

type statusCount struct {
	label string
	count int
}

func printStatusCounts(cmd *cobra.Command, counts []statusCount) {
	for _, c := range counts {
		if c.count == 0 {
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %-12s %d\n", c.label, c.count)
	}
}
