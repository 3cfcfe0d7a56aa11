package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/bowstring/internal/store"
)

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded practice sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.Database.Enabled {
			return fmt.Errorf("database disabled in config")
		}

		st, err := store.New(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()

		sessions, err := st.Sessions().List()
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions recorded yet.")
			return nil
		}

		for _, s := range sessions {
			line := fmt.Sprintf("%s  %s  notes=%d unique=%d",
				s.ID[:8], s.StartTime.Local().Format("2006-01-02 15:04"), s.TotalNotes, s.UniqueNotes)
			if s.EndTime.Valid {
				line += fmt.Sprintf("  length=%s", s.Duration().Round(time.Second))
			} else {
				line += "  (open)"
			}
			if s.NotesPerMinute.Valid && s.NotesPerMinute.Float64 > 0 {
				line += fmt.Sprintf("  npm=%.1f", s.NotesPerMinute.Float64)
			}
			fmt.Println(line)
		}
		return nil
	},
}
