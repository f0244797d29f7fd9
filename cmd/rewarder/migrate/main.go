package main

import (
	"context"
	"flag"
	"log"

	"github.com/uptrace/bun/migrate"

	"github.com/chainsafe/bridge-rewarder/pkg/config"
	"github.com/chainsafe/bridge-rewarder/pkg/migrations/rewarderdb"
	"github.com/chainsafe/bridge-rewarder/pkg/pgutil"
	mghelper "github.com/chainsafe/bridge-rewarder/pkg/pgutil/migrations"
)

func main() {
	cfgPath := flag.String("config", "config.example.yaml", "Path to configuration file")
	flag.Usage = mghelper.Usage
	flag.Parse()

	cfg, err := config.LoadDatabase(*cfgPath)
	if err != nil {
		log.Fatalf("error reading configuration file: %s", err.Error())
	}

	db, err := pgutil.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database %s: %s", cfg.Database, err.Error())
	}
	defer db.Close()

	log.Printf("Running migrations for rewarder database (%s)...\n", cfg.Database)

	migrator := migrate.NewMigrator(db, rewarderdb.Migrations)
	if err := mghelper.RunMigrations(context.Background(), migrator, flag.Args()...); err != nil {
		mghelper.Exitf(err.Error())
	}
}
