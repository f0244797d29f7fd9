package deposits

import (
	"context"
	"errors"
	"fmt"

	"github.com/chainsafe/bridge-rewarder/pkg/ethereum"
	"github.com/chainsafe/bridge-rewarder/pkg/retry"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// ErrInvalidRange is returned for an empty or inverted block range
var ErrInvalidRange = errors.New("invalid block range")

// EventSource reads AcceptedCrossTransfer logs for an inclusive block range
type EventSource interface {
	FilterCrossTransfers(ctx context.Context, bridge common.Address, fromBlock, toBlock uint64) ([]*ethereum.CrossTransferEvent, error)
}

// BlockRange is an inclusive range of block numbers
type BlockRange struct {
	From uint64
	To   uint64
}

// BlockRanges splits [from, to] into contiguous ranges of at most batchSize blocks.
// The last range always ends at to.
func BlockRanges(from, to, batchSize uint64) ([]BlockRange, error) {
	if to < from {
		return nil, fmt.Errorf("%w: to_block %d is before from_block %d", ErrInvalidRange, to, from)
	}
	if batchSize == 0 {
		return nil, fmt.Errorf("%w: batch size must be positive", ErrInvalidRange)
	}

	var ranges []BlockRange
	for start := from; ; {
		end := to
		if to-start >= batchSize {
			end = start + batchSize - 1
		}
		ranges = append(ranges, BlockRange{From: start, To: end})
		if end == to {
			return ranges, nil
		}
		start = end + 1
	}
}

// Fetcher reads bridge events in bounded batches
type Fetcher struct {
	source    EventSource
	batchSize uint64
	policy    retry.Policy
	logger    *zap.Logger
}

// NewFetcher creates a fetcher that retries each batch immediately up to retries times
func NewFetcher(source EventSource, batchSize, retries uint64, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		source:    source,
		batchSize: batchSize,
		policy:    retry.Immediate(retries),
		logger:    logger.Named("fetcher"),
	}
}

// Fetch returns all events of the bridge in [fromBlock, toBlock] in block order.
// A failure discards everything read so far; callers restart from fromBlock.
func (f *Fetcher) Fetch(ctx context.Context, bridge common.Address, fromBlock, toBlock uint64) ([]*ethereum.CrossTransferEvent, error) {
	ranges, err := BlockRanges(fromBlock, toBlock, f.batchSize)
	if err != nil {
		return nil, err
	}

	var events []*ethereum.CrossTransferEvent
	for _, r := range ranges {
		batch, err := retry.Value(ctx, f.logger, "fetch bridge events", f.policy,
			func(ctx context.Context) ([]*ethereum.CrossTransferEvent, error) {
				return f.source.FilterCrossTransfers(ctx, bridge, r.From, r.To)
			})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch events in [%d, %d]: %w", r.From, r.To, err)
		}
		events = append(events, batch...)
	}

	f.logger.Debug("Fetched events",
		zap.String("bridge", bridge.Hex()),
		zap.Uint64("from_block", fromBlock),
		zap.Uint64("to_block", toBlock),
		zap.Int("batches", len(ranges)),
		zap.Int("events", len(events)))
	return events, nil
}
