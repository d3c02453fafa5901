package service

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"yatube/app/config"
	"yatube/app/logging"
	"yatube/app/repositories"
	"yatube/app/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is stamped at build time with -ldflags "-X yatube/service.Version=...".
var Version = "dev"

type configLoader func() (*config.Config, error)

// Execute runs the command line and returns the process exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		return 1
	}
	return 0
}

// NewRootCommand builds the yatube command tree.
func NewRootCommand() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:          "yatube",
		Short:        "Blog with posts, groups, comments and follows",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (yaml, json or toml)")
	load := func() (*config.Config, error) { return config.Load(cfgPath) }

	root.AddCommand(
		newServeCommand(load),
		newInitCommand(load),
		newCleanCommand(load),
		newBackupCommand(load),
		newRestoreCommand(load),
		newGroupCommand(load),
		newVersionCommand(),
	)
	return root
}

func newServeCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the blog service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := NewApp(ctx, cfg, log)
			if err != nil {
				log.Error("startup failed", zap.Error(err))
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					log.Warn("close", zap.Error(err))
				}
			}()
			return app.Run(ctx)
		},
	}
}

func newInitCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Database.InMemory {
				return errInMemory
			}
			ok, err := databaseExists(cfg.Database.Path)
			if err != nil {
				return err
			}
			if ok {
				return fmt.Errorf("database already exists at %s; use clean first to reinitialize", cfg.Database.Path)
			}

			store, err := repositories.OpenStore(repositories.StoreOptions{Path: cfg.Database.Path})
			if err != nil {
				return err
			}
			if err := store.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database initialized at %s\n", cfg.Database.Path)
			return nil
		},
	}
}

func newCleanCommand(load configLoader) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Database.InMemory {
				return errInMemory
			}
			ok, err := databaseExists(cfg.Database.Path)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Database is already clean (does not exist)")
				return nil
			}
			if !yes {
				return fmt.Errorf("refusing to delete %s without --yes", cfg.Database.Path)
			}
			if err := os.RemoveAll(cfg.Database.Path); err != nil {
				return fmt.Errorf("clean database: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database cleaned successfully")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion")
	return cmd
}

func newBackupCommand(load configLoader) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a full backup of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			store, err := openExisting(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create backup directory: %w", err)
			}
			path := filepath.Join(dir, fmt.Sprintf("backup_%d.db", time.Now().Unix()))
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create backup file: %w", err)
			}
			if _, err := store.DB.Backup(f, 0); err != nil {
				f.Close()
				return fmt.Errorf("backup database: %w", err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("write backup: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database backed up successfully to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "output", "o", filepath.Join("data", "backups"), "directory for the backup file")
	return cmd
}

func newRestoreCommand(load configLoader) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the database with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Database.InMemory {
				return errInMemory
			}
			return restore(cmd, cfg.Database.Path, args[0], yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "replace an existing database")
	return cmd
}

func restore(cmd *cobra.Command, dbPath, backupFile string, replace bool) (err error) {
	f, err := os.Open(backupFile)
	if err != nil {
		return fmt.Errorf("open backup: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat backup: %w", err)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("backup file is empty: %s", backupFile)
	}

	ok, err := databaseExists(dbPath)
	if err != nil {
		return err
	}
	if ok {
		if !replace {
			return fmt.Errorf("database exists at %s; pass --yes to replace it", dbPath)
		}
		if err := os.RemoveAll(dbPath); err != nil {
			return fmt.Errorf("remove existing database: %w", err)
		}
	}

	store, err := repositories.OpenStore(repositories.StoreOptions{Path: dbPath})
	if err != nil {
		return err
	}
	defer store.Close()

	// Load panics on some corrupt inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("restore database: %v", r)
		}
	}()
	if err := store.DB.Load(f, 4); err != nil {
		return fmt.Errorf("restore database: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Database restored successfully")
	return nil
}

func newGroupCommand(load configLoader) *cobra.Command {
	group := &cobra.Command{
		Use:   "group",
		Short: "Manage groups",
	}

	var title, slug, description string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a group posts can be filed under",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			store, err := openExisting(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			g, err := services.NewGroupService(store.Groups).CreateGroup(title, slug, description)
			var fe services.FormErrors
			if errors.As(err, &fe) {
				return fmt.Errorf("invalid group: %s", fe.Error())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created group %q at /group/%s/\n", g.Title, g.Slug)
			return nil
		},
	}
	create.Flags().StringVar(&title, "title", "", "group title")
	create.Flags().StringVar(&slug, "slug", "", "address of the group page, [a-z0-9_-]")
	create.Flags().StringVar(&description, "description", "", "group description")
	for _, name := range []string{"title", "slug", "description"} {
		_ = create.MarkFlagRequired(name)
	}
	group.AddCommand(create)

	list := &cobra.Command{
		Use:   "list",
		Short: "List groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			store, err := openExisting(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			groups, err := services.NewGroupService(store.Groups).ListGroups()
			if err != nil {
				return err
			}
			for _, g := range groups {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", g.Slug, g.Title)
			}
			return nil
		},
	}
	group.AddCommand(list)
	return group
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "yatube version %s\n", Version)
		},
	}
}
