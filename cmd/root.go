// Package cmd contains the commands of the quillpost binary.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"quillpost-api/config"
	"quillpost-api/database"
	"quillpost-api/logger"
)

// NewRootCommand builds the command tree. Flags override QUILLPOST_*
// environment variables, which override config.yaml.
func NewRootCommand() *cobra.Command {
	v := config.New()

	root := &cobra.Command{
		Use:           "quillpost",
		Short:         "Blogging platform API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("db-engine", v.GetString("db_engine"), "database engine: mysql, postgres or sqlite")
	flags.String("database-url", v.GetString("database_url"), "database connection string")
	flags.String("log-format", v.GetString("log_format"), "log format: text or json")
	flags.String("log-level", v.GetString("log_level"), "log level: none, debug, info, warn or error")
	mustBindPFlags(v, flags, "db-engine", "database-url", "log-format", "log-level")

	root.AddCommand(
		NewServeCommand(v),
		NewMigrateCommand(v),
		NewSeedCommand(v),
		NewTokenCommand(v),
	)
	return root
}

// mustBindPFlags binds each flag to the viper key with dashes replaced by
// underscores.
func mustBindPFlags(v *viper.Viper, flags *pflag.FlagSet, names ...string) {
	for _, name := range names {
		if err := v.BindPFlag(strings.ReplaceAll(name, "-", "_"), flags.Lookup(name)); err != nil {
			panic("failed to bind pflag: " + err.Error())
		}
	}
}

// bootstrap loads configuration, builds the logger and opens the database.
func bootstrap(v *viper.Viper) (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg := config.FromViper(v)

	log, err := logger.New(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := database.Initialize(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, db, nil
}

func closeDB(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}

func NewMigrateCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, log, db, err := bootstrap(v)
			if err != nil {
				return err
			}
			defer closeDB(db, log)

			if err := database.Migrate(db, log); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migration done")
			return nil
		},
	}
}

func NewSeedCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Migrate and load sample users and posts into an empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, log, db, err := bootstrap(v)
			if err != nil {
				return err
			}
			defer closeDB(db, log)

			if err := database.Migrate(db, log); err != nil {
				return err
			}
			if err := database.SeedData(db, log); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "seed done")
			return nil
		},
	}
}
