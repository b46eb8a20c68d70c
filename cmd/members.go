package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tablet-checkout/internal/directory"
	"tablet-checkout/internal/roster"
)

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "Manage the employee roster",
	Long:  `List members and import them from HR roster CSV exports.`,
}

var membersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all members",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		members, err := provider.ListMembers(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing members: %v\n", err)
			os.Exit(1)
		}

		if len(members) == 0 {
			fmt.Println("No members found.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tEMPLOYEE ID\tSTATUS")
		for _, member := range members {
			status := "Inactive"
			if member.IsActive {
				status = "Active"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", member.Name, member.EmpID, status)
		}
		w.Flush()
		fmt.Printf("\nTotal members: %d\n", len(members))
	},
}

var membersImportCmd = &cobra.Command{
	Use:   "import <roster.csv>",
	Short: "Import members from a roster CSV",
	Long:  `Reads a tab-separated roster export (UTF-8 or UTF-16 with BOM) and creates a member per row. Rows whose employee id already exists are skipped.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		records, err := roster.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading roster: %v\n", err)
			os.Exit(1)
		}

		dir := directory.New(provider)
		created, skipped := 0, 0
		for _, record := range records {
			_, err := dir.CreateMember(ctx, record.Name, record.EmpID, record.Pin)
			if errors.Is(err, directory.ErrEmpIDTaken) {
				fmt.Printf("Skipping %s (%s): employee id already exists\n", record.Name, record.EmpID)
				skipped++
				continue
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error creating member %s: %v\n", record.EmpID, err)
				os.Exit(1)
			}
			created++
		}

		fmt.Printf("Imported %d members, skipped %d\n", created, skipped)
	},
}

func init() {
	rootCmd.AddCommand(membersCmd)
	membersCmd.AddCommand(membersListCmd)
	membersCmd.AddCommand(membersImportCmd)
}
