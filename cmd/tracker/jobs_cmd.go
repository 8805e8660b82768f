package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-tracker/internal/jobs"
)

func newJobsCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Track job applications through the tracker server",
	}

	board := func(cmd *cobra.Command) (*jobs.Board, error) {
		b := jobs.NewBoard(d.jobsRepo(d.cfg))
		if err := b.Refresh(cmd.Context()); err != nil {
			return nil, fmt.Errorf("fetching applications: %w", err)
		}
		return b, nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List applications and their rounds",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				b, err := board(cmd)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				for _, a := range b.Applications() {
					fmt.Fprintf(w, "%s  %s [%s]\n", a.ID, a.CompanyName, a.ApplicationStatus)
					for _, r := range a.Rounds {
						fmt.Fprintf(w, "   %d. %s [%s]\n", r.RoundNumber, r.RoundName, r.Status)
					}
					if a.Review != "" {
						fmt.Fprintf(w, "   review: %s\n", a.Review)
					}
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <company>",
			Short: "Add a company with three pending rounds",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				b, err := board(cmd)
				if err != nil {
					return err
				}
				app, err := b.AddCompany(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", app.CompanyName, app.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "status <id> <pending|accepted|rejected>",
			Short: "Set an application's status",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				b, err := board(cmd)
				if err != nil {
					return err
				}
				return b.SetStatus(cmd.Context(), args[0], jobs.Status(args[1]))
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete an application and its rounds",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				b, err := board(cmd)
				if err != nil {
					return err
				}
				return b.DeleteApplication(cmd.Context(), args[0])
			},
		},
	)
	return cmd
}
