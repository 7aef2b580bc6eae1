package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"dilemmas/internal/config"
	"dilemmas/internal/db"
	"dilemmas/internal/services"
	"dilemmas/internal/store"

	"github.com/spf13/cobra"
)

var repairCounters bool

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Compare denunciation counters with the stored denunciations",
	Long: `Recount the denunciations of every denounced dilemma and report the
dilemmas whose total_denunciations counter disagrees.

Examples:
  dilemmas audit            # report drift only
  dilemmas audit --repair   # overwrite drifting counters with the recount`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runAudit(ctx, repairCounters)
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().BoolVar(&repairCounters, "repair", false, "Overwrite drifting counters with the verified count")
}

func runAudit(ctx context.Context, repair bool) error {
	conn, err := db.Open(config.DatabaseURL())
	if err != nil {
		return err
	}

	auditor := services.NewCounterAuditor(store.New(conn))
	drifts, err := auditor.AuditAll(ctx, repair)
	if err != nil {
		return err
	}

	if len(drifts) == 0 {
		fmt.Println("All denunciation counters match.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DILEMMA\tCOUNTER\tVERIFIED")
	for _, d := range drifts {
		fmt.Fprintf(w, "%d\t%d\t%d\n", d.DilemmaID, d.Counter, d.Verified)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if repair {
		fmt.Printf("Repaired %d counter(s).\n", len(drifts))
	} else {
		fmt.Printf("%d counter(s) drifted; rerun with --repair to fix.\n", len(drifts))
	}
	return nil
}
