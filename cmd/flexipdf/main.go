package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"flexipdf/internal/app"
	"flexipdf/internal/config"
	"flexipdf/internal/flexi"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func readConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates a FlexiApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Import", "DeleteFolder").
func newApp(ctx context.Context, operation string) (*app.FlexiApp, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewFlexiApp(ctx, cfg, operation, app.Options{})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// promptPassphrase reads a passphrase from the terminal without echo.
func promptPassphrase() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("passphrase required but stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Passphrase: ")
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(pass), nil
}

func formatModified(ms int64) string {
	if ms == 0 {
		return "never opened"
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}

func printDocuments(docs []flexi.Document) {
	if len(docs) == 0 {
		fmt.Println("No documents.")
		return
	}
	for _, d := range docs {
		fav := " "
		if d.IsFavorite {
			fav = "*"
		}
		fmt.Printf("%s %-36s  %-16s  %s\n", fav, d.ID, formatModified(d.LastModified), d.Name)
	}
}

var rootCmd = &cobra.Command{
	Use:          "flexipdf",
	Short:        "Personal PDF library",
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
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults.BaseDir)
		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Base Dir: %s\n", defaults.BaseDir)
		fmt.Println("Run 'flexipdf store migrate' to create the library store.")
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
		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Log Level:  %s\n", cfg.LogLevel)
		fmt.Printf("Store:      %s\n", cfg.Store.Type)
		switch cfg.Store.Type {
		case "sqlite":
			fmt.Printf("  Data Dir: %s\n", cfg.Store.DataDir)
		case "filesystem":
			fmt.Printf("  Root:     %s\n", cfg.Store.FSRoot)
		case "s3":
			fmt.Printf("  Bucket:   %s\n", cfg.Store.S3Bucket)
			fmt.Printf("  Prefix:   %s\n", cfg.Store.S3Prefix)
		}
		fmt.Printf("Widget:     %s\n", cfg.Widget.Type)
		if cfg.Widget.Type == "statefile" {
			fmt.Printf("  State:    %s\n", cfg.Widget.StatePath)
		}
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		if len(cfg.Import.Ignore) > 0 {
			fmt.Printf("Ignore:     %s\n", strings.Join(cfg.Import.Ignore, ", "))
		}
		return nil
	},
}

// store command
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the library store",
}

var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the store schema and key layout",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		if err := app.MigrateStore(cmd.Context(), cfg); err != nil {
			return err
		}
		fmt.Println("Store is up to date.")
		return nil
	},
}

var storeBackupCmd = &cobra.Command{
	Use:   "backup DEST",
	Short: "Copy the sqlite store to DEST",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "BackupStore")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.BackupStore(args[0]); err != nil {
			return err
		}
		fmt.Printf("Store backed up to %s\n", args[0])
		return nil
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import PATH...",
	Short: "Add PDF files to the current folder",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recursive, _ := cmd.Flags().GetBool("recursive")

		a, err := newApp(cmd.Context(), "Import")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Import(cmd.Context(), args, recursive)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		for _, d := range res.Denied {
			fmt.Fprintf(os.Stderr, "skipped %s: %v\n", d.Locator, d.Err)
		}
		fmt.Printf("Imported %d document(s), %d already in the library\n", len(res.Added), len(res.Duplicates))
		return nil
	},
}

// ls command
var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ListOptions{}
		opts.Folder, _ = cmd.Flags().GetString("folder")
		opts.All, _ = cmd.Flags().GetBool("all")
		opts.Favorites, _ = cmd.Flags().GetBool("favorites")
		opts.Where, _ = cmd.Flags().GetString("where")

		a, err := newApp(cmd.Context(), "ListDocuments")
		if err != nil {
			return err
		}
		defer a.Close()

		if !opts.All && !opts.Favorites {
			folderID := opts.Folder
			if folderID == "" {
				if folderID, err = a.Library().CurrentFolder(); err != nil {
					return err
				}
			} else if folderID, err = a.ResolveFolder(folderID); err != nil {
				return err
			}
			folders, err := a.Library().Folders(folderID)
			if err != nil {
				return err
			}
			for _, f := range folders {
				fmt.Printf("  %-36s  %-16s  %s/\n", f.ID, "", f.Name)
			}
		}

		docs, err := a.ListDocuments(opts)
		if err != nil {
			return a.Fail(err)
		}
		printDocuments(docs)
		return nil
	},
}

// tree command
var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show the whole library as a tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "Tree")
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.Tree()
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

// folder command
var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Manage folders",
}

var folderCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a folder in the current folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parentRef, _ := cmd.Flags().GetString("parent")

		a, err := newApp(cmd.Context(), "CreateFolder")
		if err != nil {
			return err
		}
		defer a.Close()

		var parentID string
		if parentRef == "" {
			parentID, err = a.Library().CurrentFolder()
		} else {
			parentID, err = a.ResolveFolder(parentRef)
		}
		if err != nil {
			return err
		}

		f, err := a.Library().CreateFolder(cmd.Context(), args[0], parentID)
		if err != nil {
			return a.Fail(err)
		}
		fmt.Printf("Created folder %s (%s)\n", f.Name, f.ID)
		return nil
	},
}

var folderRenameCmd = &cobra.Command{
	Use:   "rename FOLDER NAME",
	Short: "Rename a folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "RenameFolder")
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.ResolveFolder(args[0])
		if err != nil {
			return err
		}
		f, err := a.Library().RenameFolder(cmd.Context(), id, args[1])
		if err != nil {
			return a.Fail(err)
		}
		fmt.Printf("Renamed folder to %s\n", f.Name)
		return nil
	},
}

var folderMoveCmd = &cobra.Command{
	Use:   "move FOLDER PARENT",
	Short: "Move a folder under another folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "MoveFolder")
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.ResolveFolder(args[0])
		if err != nil {
			return err
		}
		parentID, err := a.ResolveFolder(args[1])
		if err != nil {
			return err
		}
		f, err := a.Library().MoveFolder(cmd.Context(), id, parentID)
		if err != nil {
			return a.Fail(err)
		}
		path, err := a.FolderPath(f.ID)
		if err != nil {
			return err
		}
		fmt.Printf("Moved folder to %s\n", path)
		return nil
	},
}

var folderRmCmd = &cobra.Command{
	Use:   "rm FOLDER",
	Short: "Delete a folder, its subfolders and their documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "DeleteFolder")
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.ResolveFolder(args[0])
		if err != nil {
			return err
		}
		n, err := a.Library().DeleteFolder(cmd.Context(), id)
		if err != nil {
			return a.Fail(err)
		}
		fmt.Printf("Deleted folder and %d document(s)\n", n)
		return nil
	},
}

// cd command
var cdCmd = &cobra.Command{
	Use:   "cd [FOLDER]",
	Short: "Change the current folder",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "EnterFolder")
		if err != nil {
			return err
		}
		defer a.Close()

		ref := "/"
		if len(args) > 0 {
			ref = args[0]
		}

		var id string
		if ref == ".." {
			id, err = a.Library().LeaveFolder(cmd.Context())
		} else if id, err = a.ResolveFolder(ref); err == nil {
			err = a.Library().EnterFolder(cmd.Context(), id)
		}
		if err != nil {
			return a.Fail(err)
		}

		path, err := a.FolderPath(id)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var pwdCmd = &cobra.Command{
	Use:   "pwd",
	Short: "Show the current folder",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "CurrentFolder")
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.Library().CurrentFolder()
		if err != nil {
			return err
		}
		path, err := a.FolderPath(id)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

// document commands
var renameCmd = &cobra.Command{
	Use:   "rename DOCUMENT NAME",
	Short: "Rename a document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "RenameDocument")
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.ResolveDocument(args[0])
		if err != nil {
			return err
		}
		d, err = a.Library().RenameDocument(cmd.Context(), d.ID, args[1])
		if err != nil {
			return a.Fail(err)
		}
		fmt.Printf("Renamed document to %s\n", d.Name)
		return nil
	},
}

var favCmd = &cobra.Command{
	Use:   "fav DOCUMENT",
	Short: "Toggle the favorite mark on a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "ToggleFavorite")
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.ResolveDocument(args[0])
		if err != nil {
			return err
		}
		d, err = a.Library().ToggleFavorite(cmd.Context(), d.ID)
		if err != nil {
			return a.Fail(err)
		}
		if d.IsFavorite {
			fmt.Printf("%s marked as favorite\n", d.Name)
		} else {
			fmt.Printf("%s unmarked\n", d.Name)
		}
		return nil
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv DOCUMENT FOLDER",
	Short: "Move a document to a folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "MoveDocument")
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.ResolveDocument(args[0])
		if err != nil {
			return err
		}
		folderID, err := a.ResolveFolder(args[1])
		if err != nil {
			return err
		}
		if _, err := a.Library().MoveDocument(cmd.Context(), d.ID, folderID); err != nil {
			return a.Fail(err)
		}
		path, err := a.FolderPath(folderID)
		if err != nil {
			return err
		}
		fmt.Printf("Moved %s to %s\n", d.Name, path)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm DOCUMENT...",
	Short: "Remove documents from the library",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "RemoveDocuments")
		if err != nil {
			return err
		}
		defer a.Close()

		ids := make([]string, 0, len(args))
		for _, ref := range args {
			d, err := a.ResolveDocument(ref)
			if err != nil {
				return err
			}
			ids = append(ids, d.ID)
		}
		if err := a.Library().Select(ids...); err != nil {
			return a.Fail(err)
		}
		n, err := a.Library().RemoveSelected(cmd.Context())
		if err != nil {
			return a.Fail(err)
		}
		fmt.Printf("Removed %d document(s)\n", n)
		return nil
	},
}

var openCmd = &cobra.Command{
	Use:   "open DOCUMENT",
	Short: "Mark a document as opened and print its location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "OpenDocument")
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.ResolveDocument(args[0])
		if err != nil {
			return err
		}
		d, err = a.Library().OpenDocument(cmd.Context(), d.ID)
		if err != nil {
			return a.Fail(err)
		}
		fmt.Println(d.Locator)
		return nil
	},
}

var closeCmd = &cobra.Command{
	Use:   "close",
	Short: "Tell the widget no document is open",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "CloseDocument")
		if err != nil {
			return err
		}
		defer a.Close()

		a.Library().CloseDocument(cmd.Context())
		return nil
	},
}

// widget command
var widgetCmd = &cobra.Command{
	Use:   "widget",
	Short: "Inspect the open-document widget",
}

var widgetStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the widget displays",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "WidgetStatus")
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.WidgetStatus()
		if err != nil {
			return err
		}
		if !st.DocumentOpen {
			fmt.Println("No document open.")
			return nil
		}
		fmt.Printf("%s (since %s)\n", st.Name, st.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
		return nil
	},
}

// settings command
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage display preferences",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show display preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "GetSettings")
		if err != nil {
			return err
		}
		defer a.Close()

		lang, err := a.Settings().Language(cmd.Context())
		if err != nil {
			return err
		}
		theme, err := a.Settings().Theme(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("language: %s\n", lang)
		fmt.Printf("theme:    %s\n", theme)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:       "set language|theme VALUE",
	Short:     "Change a display preference",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"language", "theme"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "SetSetting")
		if err != nil {
			return err
		}
		defer a.Close()

		switch args[0] {
		case "language":
			tag, err := a.Settings().SetLanguage(cmd.Context(), args[1])
			if err != nil {
				return a.Fail(err)
			}
			fmt.Printf("language: %s\n", tag)
		case "theme":
			if err := a.Settings().SetTheme(cmd.Context(), args[1]); err != nil {
				return a.Fail(err)
			}
			fmt.Printf("theme: %s\n", strings.ToLower(strings.TrimSpace(args[1])))
		default:
			return fmt.Errorf("unknown setting %q (want language or theme)", args[0])
		}
		return nil
	},
}

// snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Export or import the whole store",
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Write every store key to FILE",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "ExportSnapshot")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.ExportSnapshot(cmd.Context(), args[0], promptPassphrase)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Printf("Exported %d key(s) to %s\n", n, args[0])
		return nil
	},
}

var snapshotImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Restore store keys from FILE",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		replace, _ := cmd.Flags().GetBool("replace")

		a, err := newApp(cmd.Context(), "ImportSnapshot")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.ImportSnapshot(cmd.Context(), args[0], promptPassphrase, replace)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		fmt.Printf("Imported %d key(s) from %s\n", n, args[0])
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// store subcommands
	storeCmd.AddCommand(storeMigrateCmd)
	storeCmd.AddCommand(storeBackupCmd)

	// folder subcommands
	folderCmd.AddCommand(folderCreateCmd)
	folderCreateCmd.Flags().StringP("parent", "p", "", "Parent folder (default: current folder)")
	folderCmd.AddCommand(folderRenameCmd)
	folderCmd.AddCommand(folderMoveCmd)
	folderCmd.AddCommand(folderRmCmd)

	// widget subcommands
	widgetCmd.AddCommand(widgetStatusCmd)

	// settings subcommands
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)

	// snapshot subcommands
	snapshotCmd.AddCommand(snapshotExportCmd)
	snapshotCmd.AddCommand(snapshotImportCmd)
	snapshotImportCmd.Flags().Bool("replace", false, "Delete keys not present in the snapshot")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolP("recursive", "r", false, "Recurse into subdirectories")
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().StringP("folder", "f", "", "Folder to list (default: current folder)")
	lsCmd.Flags().BoolP("all", "a", false, "List every document in the library")
	lsCmd.Flags().Bool("favorites", false, "List favorite documents only")
	lsCmd.Flags().StringP("where", "w", "", `Filter expression, e.g. 'favorite && name contains "tax"'`)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(folderCmd)
	rootCmd.AddCommand(cdCmd)
	rootCmd.AddCommand(pwdCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(favCmd)
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(closeCmd)
	rootCmd.AddCommand(widgetCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(snapshotCmd)
}
