package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database migrations",
	Long: `Manage the database schema for episodes, transcript nodes
and inbox messages.

Available subcommands:
  up     - Create or update every table
  down   - Drop every table (asks for confirmation)
  status - Show which tables exist and how many rows they hold`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply the database schema",
	Long:  `Apply the database schema, creating missing tables, columns and indexes.`,
	RunE:  runMigrateUp,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Drop every table",
	Long: `Drop every application table. All episodes, transcripts and
inbox messages are lost. Asks for confirmation unless --yes is given.`,
	RunE: runMigrateDown,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Long:  `Display the current status of every application table.`,
	RunE:  runMigrateStatus,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)

	migrateDownCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	cfg, err := appConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
	return nil
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "This drops every table and all episode data.") {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
		return nil
	}

	cfg, err := appConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DropAll(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "All tables dropped")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	cfg, err := appConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	statuses, err := db.Status(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Database: %s\n", db.Driver())
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tSTATUS\tROWS")
	for _, s := range statuses {
		if s.Exists {
			fmt.Fprintf(w, "%s\tapplied\t%d\n", s.Table, s.Rows)
		} else {
			fmt.Fprintf(w, "%s\tpending\t-\n", s.Table)
		}
	}
	return w.Flush()
}

// confirm asks a y/N question; anything but y or yes declines
func confirm(in io.Reader, out io.Writer, warning string) bool {
	fmt.Fprintln(out, warning)
	fmt.Fprint(out, "Continue? (y/N) ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
