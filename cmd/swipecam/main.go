package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"swipecam/internal/app"
	"swipecam/internal/config"
	"swipecam/internal/encryption"
	"swipecam/internal/fs"
	"swipecam/internal/photo"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a PhotoApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Capture", "EmptyTrash").
func newApp(operation string) (*app.PhotoApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewPhotoApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// readPassphrase prompts on the terminal without echo.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

func shortID(id string) string {
	if len(id) > 13 {
		return id[:13]
	}
	return id
}

func printRecord(r *photo.Record, now time.Time) {
	where := "gallery"
	if at, ok := r.Lifecycle.TrashedAt(); ok {
		where = fmt.Sprintf("trash (since %s, %dd left)", at.Local().Format("2006-01-02 15:04"), r.DaysLeft(now))
	}
	fmt.Printf("%s  %s  %5dx%-5d  %8d  %s\n",
		shortID(r.ID),
		r.CapturedAt.Local().Format("2006-01-02 15:04:05"),
		r.Width, r.Height,
		r.Size,
		where,
	)
}

// explain turns declined operations into a short message; faults keep their chain.
func explain(action string, err error) error {
	if photo.IsDeclined(err) {
		return fmt.Errorf("%s declined: %w", action, err)
	}
	return fmt.Errorf("%s failed: %w", action, err)
}

var rootCmd = &cobra.Command{
	Use:          "swipecam",
	Short:        "Photo gallery and trash with bounded capacity",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		encrypt, _ := cmd.Flags().GetBool("encrypt")

		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if encrypt {
			cfg.Encryption.Type = "age"
		}

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		if encrypt {
			pass, err := readPassphrase("New passphrase: ")
			if err != nil {
				return err
			}
			confirm, err := readPassphrase("Repeat passphrase: ")
			if err != nil {
				return err
			}
			if pass != confirm {
				return errors.New("passphrases do not match")
			}
			if err := encryption.NewAgeEncryptor(cfg.Encryption).Setup(pass); err != nil {
				return fmt.Errorf("generating keys: %w", err)
			}
			fmt.Printf("Keys written to %s\n", filepath.Dir(cfg.Encryption.PublicKeyPath))
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Blob Store: %s\n", cfg.BlobStore.Type)
		fmt.Printf("Database:   %s\n", cfg.Database.Type)
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		return nil
	},
}

func captureOptions(cmd *cobra.Command) app.CaptureOptions {
	w, _ := cmd.Flags().GetInt("width")
	h, _ := cmd.Flags().GetInt("height")
	g, _ := cmd.Flags().GetString("group")
	return app.CaptureOptions{Width: w, Height: h, GroupRef: g}
}

// imagePaths expands file and directory arguments into image files.
func imagePaths(cmd *cobra.Command, args []string) ([]string, error) {
	recursive, _ := cmd.Flags().GetBool("recursive")
	paths, err := fs.FindImages(args, recursive)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.New("no images found")
	}
	return paths, nil
}

// capture command
var captureCmd = &cobra.Command{
	Use:   "capture PATH...",
	Short: "Save images to the gallery",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Capture")
		if err != nil {
			return err
		}
		defer a.Close()

		paths, err := imagePaths(cmd, args)
		if err != nil {
			return err
		}
		opts := captureOptions(cmd)
		for _, path := range paths {
			rec, err := a.Commit(path, opts)
			if err != nil {
				return explain("capture of "+path, err)
			}
			fmt.Printf("Saved %s (%s)\n", shortID(rec.ID), path)
		}
		return nil
	},
}

// discard command
var discardCmd = &cobra.Command{
	Use:   "discard PATH...",
	Short: "File images straight into the trash",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Discard")
		if err != nil {
			return err
		}
		defer a.Close()

		paths, err := imagePaths(cmd, args)
		if err != nil {
			return err
		}
		opts := captureOptions(cmd)
		for _, path := range paths {
			rec, err := a.Discard(path, opts)
			if err != nil {
				return explain("discard of "+path, err)
			}
			fmt.Printf("Discarded %s (%s)\n", shortID(rec.ID), path)
		}
		return nil
	},
}

// gallery command
var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "List saved photos, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Gallery")
		if err != nil {
			return err
		}
		defer a.Close()

		recs, err := a.Gallery()
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("Gallery is empty.")
			return nil
		}
		now := a.Now()
		for _, r := range recs {
			printRecord(r, now)
		}
		fmt.Printf("%d/%d\n", len(recs), photo.GalleryLimit)
		return nil
	},
}

// trash command
var trashCmd = &cobra.Command{
	Use:   "trash",
	Short: "Manage the trash",
}

var trashAddCmd = &cobra.Command{
	Use:   "add ID...",
	Short: "Move gallery photos to the trash",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Trash")
		if err != nil {
			return err
		}
		defer a.Close()

		for _, prefix := range args {
			id, err := a.Trash(prefix)
			if err != nil {
				return explain("trash of "+prefix, err)
			}
			fmt.Printf("Trashed %s\n", shortID(id))
		}
		return nil
	},
}

var trashListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trashed photos, most recently trashed first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("TrashList")
		if err != nil {
			return err
		}
		defer a.Close()

		recs, err := a.TrashList()
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("Trash is empty.")
			return nil
		}
		now := a.Now()
		for _, r := range recs {
			printRecord(r, now)
		}
		fmt.Printf("%d/%d\n", len(recs), photo.TrashLimit)
		return nil
	},
}

var trashRecoverCmd = &cobra.Command{
	Use:   "recover ID...",
	Short: "Move trashed photos back to the gallery",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Recover")
		if err != nil {
			return err
		}
		defer a.Close()

		for _, prefix := range args {
			id, err := a.Recover(prefix)
			if err != nil {
				return explain("recover of "+prefix, err)
			}
			fmt.Printf("Recovered %s\n", shortID(id))
		}
		return nil
	},
}

var trashEmptyCmd = &cobra.Command{
	Use:   "empty",
	Short: "Permanently delete everything in the trash",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("EmptyTrash")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.EmptyTrash()
		if err != nil {
			return fmt.Errorf("emptied %d photo(s) before failing: %w", n, err)
		}
		fmt.Printf("Purged %d photo(s)\n", n)
		return nil
	},
}

// purge command
var purgeCmd = &cobra.Command{
	Use:   "purge ID...",
	Short: "Permanently delete trashed photos",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Purge")
		if err != nil {
			return err
		}
		defer a.Close()

		for _, prefix := range args {
			id, err := a.Purge(prefix)
			if err != nil {
				return explain("purge of "+prefix, err)
			}
			fmt.Printf("Purged %s\n", shortID(id))
		}
		return nil
	},
}

// show command
var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show photo details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Show")
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.Get(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("ID:         %s\n", r.ID)
		fmt.Printf("Blob:       %s\n", r.BlobRef)
		fmt.Printf("Captured:   %s\n", r.CapturedAt.Local().Format(time.RFC3339))
		fmt.Printf("Dimensions: %dx%d\n", r.Width, r.Height)
		fmt.Printf("Size:       %d bytes\n", r.Size)
		if r.GroupRef != "" {
			fmt.Printf("Group:      %s\n", r.GroupRef)
		}
		fmt.Printf("State:      %s\n", r.Lifecycle.State())
		if at, ok := r.Lifecycle.TrashedAt(); ok {
			fmt.Printf("Trashed:    %s\n", at.Local().Format(time.RFC3339))
			fmt.Printf("Days left:  %d\n", r.DaysLeft(a.Now()))
		}
		return nil
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export ID [DEST]",
	Short: "Write a photo's image to a file",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Export")
		if err != nil {
			return err
		}
		defer a.Close()

		dest := args[0] + ".jpg"
		if len(args) > 1 {
			dest = args[1]
		}

		var pass string
		if a.NeedsPassphrase() {
			if pass, err = readPassphrase("Passphrase: "); err != nil {
				return err
			}
		}

		r, err := a.Export(args[0], dest, pass)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Printf("Exported %s to %s\n", shortID(r.ID), dest)
		return nil
	},
}

// stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show counters and occupancy",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Stats")
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.Stats()
		if err != nil {
			return err
		}

		full := func(b bool) string {
			if b {
				return "  [full]"
			}
			return ""
		}
		fmt.Printf("Captured:  %d\n", s.TotalCaptured)
		fmt.Printf("Saved:     %d\n", s.TotalSaved)
		fmt.Printf("Discarded: %d\n", s.TotalDiscarded)
		fmt.Printf("Purged:    %d\n", s.TotalPurged)
		fmt.Printf("Gallery:   %d/%d%s\n", s.GalleryCount, photo.GalleryLimit, full(s.GalleryFull()))
		fmt.Printf("Trash:     %d/%d%s\n", s.TrashCount, photo.TrashLimit, full(s.TrashFull()))
		fmt.Printf("Storage:   %d bytes\n", s.StorageBytes)
		return nil
	},
}

// sweep command
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Purge trashed photos older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Sweep")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.Sweep()
		if err != nil {
			return err
		}
		fmt.Printf("Purged %d expired photo(s)\n", n)
		return nil
	},
}

// fsck command
var fsckCmd = &cobra.Command{
	Use:   "fsck",
	Short: "Repair orphan blobs and records with missing images",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Reconcile")
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Reconcile()
		if err != nil {
			return err
		}
		for _, ref := range report.OrphanBlobs {
			fmt.Printf("deleted orphan blob %s\n", ref)
		}
		for _, id := range report.DanglingRecords {
			fmt.Printf("dropped record %s (image missing)\n", shortID(id))
		}
		if len(report.OrphanBlobs)+len(report.DanglingRecords) == 0 {
			fmt.Println("No problems found.")
		}
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the metadata database",
}

var dbBackupCmd = &cobra.Command{
	Use:   "backup DEST",
	Short: "Snapshot the SQLite database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("BackupDatabase")
		if err != nil {
			return err
		}
		defer a.Close()

		dest, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}
		if err := a.BackupDatabase(dest); err != nil {
			return err
		}
		fmt.Printf("Database backed up to %s\n", dest)
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configInitCmd.Flags().Bool("encrypt", false, "Encrypt images at rest with a passphrase-protected age key")

	// trash subcommands
	trashCmd.AddCommand(trashAddCmd)
	trashCmd.AddCommand(trashListCmd)
	trashCmd.AddCommand(trashRecoverCmd)
	trashCmd.AddCommand(trashEmptyCmd)

	// db subcommands
	dbCmd.AddCommand(dbBackupCmd)

	for _, c := range []*cobra.Command{captureCmd, discardCmd} {
		c.Flags().Int("width", 0, "Image width in pixels (default: read from the image)")
		c.Flags().Int("height", 0, "Image height in pixels (default: read from the image)")
		c.Flags().StringP("group", "g", "", "Group reference, e.g. a burst id")
		c.Flags().BoolP("recursive", "r", false, "Recurse into subdirectories")
	}

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(discardCmd)
	rootCmd.AddCommand(galleryCmd)
	rootCmd.AddCommand(trashCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(fsckCmd)
	rootCmd.AddCommand(dbCmd)
}
