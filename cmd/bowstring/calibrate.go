package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/bowstring/internal/app"
	"github.com/ayusman/bowstring/internal/gesture"
	"github.com/ayusman/bowstring/internal/store"
	"github.com/ayusman/bowstring/internal/tracker"
)

var flagProfileName string

func init() {
	calibrateCmd.Flags().StringVar(&flagProfileName, "name", "default", "name to save the profile under")
	rootCmd.AddCommand(calibrateCmd)
}

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Calibrate left-hand position zones",
	Long: `Calibrate samples your left hand in each of the three playing
positions and saves the derived zone boundaries as the active profile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCalibrate()
	},
}

var zoneNames = map[int]string{
	gesture.ZoneLow:  "FIRST (top of the frame)",
	gesture.ZoneMid:  "SECOND (middle)",
	gesture.ZoneHigh: "THIRD (bottom of the frame)",
}

func runCalibrate() error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	source, err := tracker.Dial(tracker.Config{
		URL:           cfg.Tracker.URL,
		MinConfidence: cfg.Tracker.MinConfidence,
		Buffer:        cfg.Tracker.TickHz,
	}, log)
	if err != nil {
		return err
	}
	defer source.Close()

	profile, err := app.RunCalibration(source, app.CalibrationOptions{
		Window:       cfg.Thresholds.CalibrationWindow,
		ZoneTimeout:  30 * time.Second,
		Settle:       2 * time.Second,
		TiltDeadZone: cfg.Thresholds.TiltDeadZone,
		Prompt: func(zone int) {
			fmt.Printf("Hold your left hand in the %s position...\n", zoneNames[zone])
		},
	}, log)
	if err != nil {
		return err
	}

	fmt.Printf("Calibrated zones: low < %.3f <= mid < %.3f <= high\n",
		profile.LowBound, profile.MidBound)

	if !cfg.Database.Enabled {
		fmt.Println("Database disabled; profile not saved.")
		return nil
	}

	st, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	repo := st.Profiles()

	// Re-calibrating under the same name replaces the old profile.
	if old, err := repo.GetByName(flagProfileName); err == nil {
		if err := repo.Delete(old.ID); err != nil {
			return fmt.Errorf("replace profile %q: %w", flagProfileName, err)
		}
	}

	saved := &store.CalibrationProfile{
		Name:      flagProfileName,
		LowBound:  profile.LowBound,
		MidBound:  profile.MidBound,
		HighBound: profile.HighBound,
	}
	if err := repo.Create(saved); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	if err := repo.SetActive(saved.ID); err != nil {
		return fmt.Errorf("activate profile: %w", err)
	}

	fmt.Printf("Saved and activated profile %q.\n", flagProfileName)
	return nil
}
