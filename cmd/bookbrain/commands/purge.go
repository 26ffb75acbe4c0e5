// ABOUTME: Purge command that removes a section's derived data
// ABOUTME: Clears vector index entries and cached translations for one section
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/bookbrain/internal/storage/sqlite"
)

// NewPurgeCmd creates the purge command
func NewPurgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge <section_id>",
		Short: "Remove a section's index entries and cached translations",
		Long: `Delete everything derived from one section: its vector index points
and every cached translation. Run after editing a section's source,
then re-ingest.

Example:
  bookbrain purge "modules/ros2/index#what-is-ros-2"`,
		Args: cobra.ExactArgs(1),
		RunE: runPurge,
	}

	return cmd
}

func runPurge(cmd *cobra.Command, args []string) error {
	sectionID := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	vdb, err := connectVectorDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer vdb.Close()

	if err := vdb.DeleteWhere(ctx, "section_id", sectionID); err != nil {
		return fmt.Errorf("purging index entries: %w", err)
	}

	db, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	deleted, err := sqlite.NewTranslationStore(db).DeleteBySection(sectionID)
	if err != nil {
		return fmt.Errorf("purging translations: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"Purged section %s: index entries removed, %d cached translations deleted\n",
		sectionID, deleted)
	return nil
}
