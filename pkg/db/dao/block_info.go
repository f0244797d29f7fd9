package dao

import (
	"time"

	"github.com/uptrace/bun"
)

// BlockInfoDao is a data access object that maps directly to the 'block_info' table in PostgreSQL.
type BlockInfoDao struct {
	bun.BaseModel `bun:"table:block_info,alias:bi"`
	Key           string    `bun:"key,pk,type:varchar(64)"`
	BlockNumber   int64     `bun:"block_number,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,nullzero,default:current_timestamp"`
}
