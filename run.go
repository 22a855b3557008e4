package main

import (
	"context"
	"fmt"

	"github.com/typedump/typedump/client"
	"github.com/typedump/typedump/config"
	"github.com/typedump/typedump/extract"
	"github.com/typedump/typedump/host"
	"github.com/typedump/typedump/logging"
	"github.com/typedump/typedump/typedb"
)

func run(ctx context.Context) error {
	if *checkOption != "" {
		return check(*checkOption)
	}

	cfgFile := *configOption
	if cfgFile == "" {
		found, err := config.FindConfigFile(".", config.DefaultFilenames)
		if err != nil {
			return fmt.Errorf("failed to find config file: %w", err)
		}
		cfgFile = found
	}

	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config file: %w", err)
	}

	log := logging.New(logging.Config{
		Level:  cfg.Typedump.Log.Level,
		Pretty: cfg.Typedump.Log.Pretty,
	})

	rpc := client.NewClient(cfg.Typedump.Host.URL, client.WithHTTPHeader(cfg.Typedump.Host.Headers))
	session := host.NewSession(rpc)

	log.Info().Str("host", cfg.Typedump.Host.URL).Msg("extracting types")
	db, err := extract.New(session, log).Run(ctx)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if err := db.Save(cfg.Typedump.Output.Dir); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	log.Info().Str("dir", cfg.Typedump.Output.Dir).Msg("export written")

	return nil
}

func check(dir string) error {
	db, err := typedb.Load(dir)
	if err != nil {
		return fmt.Errorf("failed to load export: %w", err)
	}
	if err := db.Validate(); err != nil {
		return fmt.Errorf("export is inconsistent: %w", err)
	}

	return nil
}
