package rewards

import "github.com/chainsafe/bridge-rewarder/pkg/db"

// SkipReason explains why a deposit did not produce a reward
type SkipReason string

const (
	SkipNoThreshold         SkipReason = "no_threshold"
	SkipBelowThreshold      SkipReason = "below_threshold"
	SkipAlreadyRewarded     SkipReason = "already_rewarded"
	SkipRecipientIsContract SkipReason = "recipient_is_contract"
	SkipUserBootstrapped    SkipReason = "user_bootstrapped"
)

// Outcome is the result of evaluating one deposit.
// Reward is set only when Queued is true, Reason only when it is false.
type Outcome struct {
	Queued bool
	Reward *db.Reward
	Reason SkipReason
}

func queued(reward *db.Reward) Outcome {
	return Outcome{Queued: true, Reward: reward}
}

func skipped(reason SkipReason) Outcome {
	return Outcome{Reason: reason}
}

// Label is the metrics label of the outcome
func (o Outcome) Label() string {
	if o.Queued {
		return "queued"
	}
	return string(o.Reason)
}
