package rewarderdb

import (
	"context"
	"log"

	"github.com/chainsafe/bridge-rewarder/pkg/db/dao"
	mghelper "github.com/chainsafe/bridge-rewarder/pkg/pgutil/migrations"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating block_info table...")
		return mghelper.CreateSchema(ctx, db, &dao.BlockInfoDao{})
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping block_info table...")
		return mghelper.DropTables(ctx, db, &dao.BlockInfoDao{})
	})
}
