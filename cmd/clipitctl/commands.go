package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(db adminStore) error {
				if err := db.EnsureSchema(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
				return nil
			})
		},
	}
}

func newSweepOverdueCommand(ctx *commandContext) *cobra.Command {
	var enqueue bool

	cmd := &cobra.Command{
		Use:   "sweep-overdue",
		Short: "Expire open jobs whose deadline has passed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if enqueue {
				client, err := ctx.openQueue()
				if err != nil {
					return err
				}
				defer client.Close()

				info, err := client.EnqueueExpireOverdueJobs(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Enqueued sweep task %s on queue %s\n", info.ID, info.Queue)
				return nil
			}

			return ctx.withStore(cmd.Context(), func(db adminStore) error {
				expired, err := db.ExpireOverdueJobs(cmd.Context(), ctx.now().UTC())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Expired %d overdue job(s)\n", expired)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "Hand the sweep to a worker instead of running it here")
	return cmd
}

func newLeaderboardCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top clippers by earnings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be at least 1")
			}
			return ctx.withStore(cmd.Context(), func(db adminStore) error {
				entries, err := db.Leaderboard(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No clippers yet")
					return nil
				}

				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						strconv.Itoa(e.Rank),
						e.Username,
						e.FirstName + " " + e.LastName,
						strconv.FormatFloat(e.Rating, 'f', 2, 64),
						"$" + strconv.FormatFloat(e.TotalEarnings, 'f', 2, 64),
						strconv.Itoa(e.TotalJobs),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Rank", "Username", "Name", "Rating", "Earnings", "Jobs"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of clippers to show")
	return cmd
}
