package rewarderdb

import (
	"context"
	"log"

	"github.com/chainsafe/bridge-rewarder/pkg/db/dao"
	mghelper "github.com/chainsafe/bridge-rewarder/pkg/pgutil/migrations"

	"github.com/uptrace/bun"
)

var rewardIndexColumns = []string{"status", "user_address", "reward_transaction_hash"}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating rewards table...")
		if err := mghelper.CreateSchema(ctx, db, &dao.RewardDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &dao.RewardDao{}, rewardIndexColumns...)
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping rewards table...")
		if err := mghelper.DropModelIndexes(ctx, db, &dao.RewardDao{}, rewardIndexColumns...); err != nil {
			return err
		}
		return mghelper.DropTables(ctx, db, &dao.RewardDao{})
	})
}
