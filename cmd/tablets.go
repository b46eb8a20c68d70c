package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"

	"tablet-checkout/internal/config"
	"tablet-checkout/internal/storage"
)

var tabletsCmd = &cobra.Command{
	Use:   "tablets",
	Short: "Manage the tablet pool",
	Long:  `Add and list tablets, and export their QR codes for printing.`,
}

var tabletsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all active tablets with current holder",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		tablets, err := provider.ListTablets(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing tablets: %v\n", err)
			os.Exit(1)
		}

		if len(tablets) == 0 {
			fmt.Println("No tablets found.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPEN\tSTATUS\tTAKEN AT")
		for _, tablet := range tablets {
			pen := "-"
			if tablet.HasPen {
				pen = "yes"
			}
			status := "available"
			takenAt := "-"
			if tablet.Holder != nil {
				status = "taken by " + tablet.Holder.Name
				takenAt = tablet.TakenAt.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", tablet.ID, tablet.Name, pen, status, takenAt)
		}
		w.Flush()
	},
}

var (
	tabletName   string
	tabletHasPen bool
)

var tabletsAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Add a tablet to the pool",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		id := args[0]
		name := tabletName
		if name == "" {
			name = id
		}

		err := provider.CreateTablet(ctx, storage.Tablet{
			ID:       id,
			Name:     name,
			HasPen:   tabletHasPen,
			IsActive: true,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating tablet: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created tablet %s (%s)\n", id, name)
	},
}

var qrOutDir string

var tabletsQrCmd = &cobra.Command{
	Use:   "qr",
	Short: "Export QR code PNGs for all active tablets",
	Long:  `Writes one PNG per active tablet, encoding the kiosk page URL. BASE_URL must be set so printed codes point at the deployed server.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		if cfg.BaseURL == "" {
			fmt.Fprintln(os.Stderr, "BASE_URL is not configured; printed QR codes would not resolve")
			os.Exit(1)
		}

		tablets, err := provider.ListTablets(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing tablets: %v\n", err)
			os.Exit(1)
		}

		if err := os.MkdirAll(qrOutDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
			os.Exit(1)
		}

		for _, tablet := range tablets {
			url := cfg.BaseURL + "/t/" + tablet.ID
			png, err := qrcode.Encode(url, qrcode.Medium, config.QR_IMAGE_SIZE)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error generating QR code for %s: %v\n", tablet.ID, err)
				os.Exit(1)
			}

			filePath := filepath.Join(qrOutDir, tablet.ID+".png")
			if err := os.WriteFile(filePath, png, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", filePath, err)
				os.Exit(1)
			}
			fmt.Printf("Wrote %s (%s)\n", filePath, url)
		}
	},
}

func init() {
	rootCmd.AddCommand(tabletsCmd)
	tabletsCmd.AddCommand(tabletsListCmd)
	tabletsCmd.AddCommand(tabletsAddCmd)
	tabletsCmd.AddCommand(tabletsQrCmd)

	tabletsAddCmd.Flags().StringVar(&tabletName, "name", "", "display name (defaults to the id)")
	tabletsAddCmd.Flags().BoolVar(&tabletHasPen, "pen", false, "tablet has a pen accessory")
	tabletsQrCmd.Flags().StringVar(&qrOutDir, "out", "./qrcodes", "output directory for PNG files")
}
