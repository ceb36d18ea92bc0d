package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lead-intake/internal/feed"
	"lead-intake/internal/models"
)

func listCmd(opts *globalOptions) *cobra.Command {
	var (
		q        feed.Query
		category string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List applications from the staff feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if category != "" {
				cat, err := models.ParseCategory(category)
				if err != nil {
					return err
				}
				q.Category = cat
			}

			page, err := opts.client().ListApplications(cmd.Context(), q)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, header("ID", "CATEGORY", "NAME", "TYPE", "DETAIL", "STATUS", "SOURCE", "CREATED"))
			for _, r := range page.Rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.Category, r.Name, r.TypeLabel, r.AmountOrSubject,
					r.Status, r.Source, r.CreatedAt.Format("2006-01-02 15:04"))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			p := page.Pagination
			fmt.Fprintf(cmd.OutOrStdout(), "\npage %d of %d, %d applications (pending %d, reviewing %d, approved %d, rejected %d, contacted %d)\n",
				p.Page, p.TotalPages, p.Total,
				page.Stats.Pending, page.Stats.Reviewing, page.Stats.Approved, page.Stats.Rejected, page.Stats.Contacted)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&q.Status, "status", "", "only this status")
	f.StringVar(&category, "category", "", "loan, insurance or consultancy")
	f.StringVar(&q.Search, "search", "", "match against name, contact and reference")
	f.StringVar(&q.Source, "source-filter", "", "only applications from this lead source")
	f.IntVar(&q.Page, "page", 1, "page number")
	f.IntVar(&q.PageSize, "page-size", 0, "rows per page (server default when 0)")
	return cmd
}

func statusCmd(opts *globalOptions) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move an application to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := opts.client().UpdateStatus(cmd.Context(), args[0], args[1], notes)
			if err != nil {
				return err
			}

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, raw, "", "  "); err != nil {
				pretty.Reset()
				pretty.Write(raw)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n%s\n", args[0], args[1], pretty.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "note stored with the status change")
	return cmd
}
