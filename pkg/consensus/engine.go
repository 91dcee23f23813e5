package consensus

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"price_attestation/pkg/attestation"
	"price_attestation/pkg/crypto"
	"price_attestation/pkg/data"
)

// Error variables for consistent error handling
var (
	ErrNoFeedsRequested       = errors.New("no feeds requested")
	ErrDuplicateFeedRequested = errors.New("duplicate feed in request")
	ErrInsufficientSigners    = errors.New("insufficient unique signers")
	ErrInconsistentTimestamps = errors.New("packages disagree on timestamp")
	ErrZeroTimestamp          = errors.New("package timestamp is zero")
	ErrMissingRegistry        = errors.New("signer registry is required")
	ErrThresholdTooHigh       = errors.New("signer threshold exceeds registry size")
)

// Config carries the policy hooks for a verification engine. Zero fields fall
// back to defaults: threshold 1, median aggregation, the standard freshness
// window, and the system clock. Registry has no default.
type Config struct {
	// SignerThreshold is the minimum number of distinct authorized signers
	// that must report a feed before its value is trusted.
	SignerThreshold int
	// Registry authorizes recovered signer addresses.
	Registry *SignerRegistry
	// Aggregate combines the collected values for one feed.
	Aggregate AggregateFunc
	// Timestamps is the freshness policy applied to every package.
	Timestamps TimestampPolicy
	// Now supplies the current time; tests override it.
	Now func() time.Time
}

// Engine runs the decode, verify, deduplicate, aggregate pipeline over one
// payload per call. An Engine is immutable after construction and safe for
// concurrent use; all per-call state lives on the stack of the call.
type Engine struct {
	threshold  int
	registry   *SignerRegistry
	aggregate  AggregateFunc
	timestamps TimestampPolicy
	now        func() time.Time
	logger     *zap.Logger
}

// NewEngine validates the configuration and builds an engine.
func NewEngine(cfg Config, logger *zap.Logger) (*Engine, error) {
	if cfg.Registry == nil {
		return nil, ErrMissingRegistry
	}
	if cfg.SignerThreshold == 0 {
		cfg.SignerThreshold = 1
	}
	if cfg.SignerThreshold < 0 {
		return nil, fmt.Errorf("signer threshold cannot be negative: %d", cfg.SignerThreshold)
	}
	if cfg.SignerThreshold > cfg.Registry.Size() {
		return nil, fmt.Errorf("%w: threshold %d, %d signers registered",
			ErrThresholdTooHigh, cfg.SignerThreshold, cfg.Registry.Size())
	}
	if cfg.Aggregate == nil {
		cfg.Aggregate = Median
	}
	if cfg.Timestamps == (TimestampPolicy{}) {
		cfg.Timestamps = DefaultTimestampPolicy()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		threshold:  cfg.SignerThreshold,
		registry:   cfg.Registry,
		aggregate:  cfg.Aggregate,
		timestamps: cfg.Timestamps,
		now:        cfg.Now,
		logger:     logger,
	}, nil
}

// feedState is the transient per-feed bookkeeping for one verification call.
// Values holds at most threshold entries; signers beyond that still flip
// their dedup bit but their values are dropped, keeping memory bounded no
// matter how many packages the payload declares.
type feedState struct {
	seen   SignerBitmap
	values []*big.Int
	unique int
}

// GetValue verifies the payload attached to buf and returns the aggregated
// value for a single feed.
func (e *Engine) GetValue(buf []byte, feed data.FeedID) (*big.Int, error) {
	values, err := e.GetValues(buf, []data.FeedID{feed})
	if err != nil {
		return nil, err
	}
	return values[0], nil
}

// GetValues verifies the payload attached to buf and returns one aggregated
// value per requested feed, in request order. The request must not contain
// duplicate identifiers; use GetValuesAllowDuplicates when it may.
func (e *Engine) GetValues(buf []byte, feeds []data.FeedID) ([]*big.Int, error) {
	unique, mapping := data.DedupFeedIDs(feeds)
	if len(unique) != len(feeds) {
		return nil, ErrDuplicateFeedRequested
	}
	return e.getValues(buf, unique, mapping)
}

// GetValuesAllowDuplicates is GetValues for requests that may repeat a feed;
// duplicates resolve to the same aggregated value.
func (e *Engine) GetValuesAllowDuplicates(buf []byte, feeds []data.FeedID) ([]*big.Int, error) {
	unique, mapping := data.DedupFeedIDs(feeds)
	return e.getValues(buf, unique, mapping)
}

func (e *Engine) getValues(buf []byte, unique []data.FeedID, mapping []int) ([]*big.Int, error) {
	if len(unique) == 0 {
		return nil, ErrNoFeedsRequested
	}

	loc, err := attestation.LocatePayload(buf)
	if err != nil {
		return nil, err
	}
	if loc.PackageCount == 0 {
		return nil, attestation.ErrEmptyPackageList
	}
	e.logger.Debug("payload located",
		zap.Int("packages", loc.PackageCount),
		zap.Int("metadataSize", loc.MetadataSize))

	indexOf := make(map[data.FeedID]int, len(unique))
	states := make([]*feedState, len(unique))
	for i, id := range unique {
		indexOf[id] = i
		states[i] = &feedState{
			seen:   NewSignerBitmap(),
			values: make([]*big.Int, 0, e.threshold),
		}
	}

	now := e.now()
	satisfied := 0
	tail := loc.PackagesTailOffset
	for i := 0; i < loc.PackageCount && satisfied < len(unique); i++ {
		pkg, err := attestation.DecodePackageAt(buf, tail)
		if err != nil {
			return nil, fmt.Errorf("decoding package %d: %w", i, err)
		}
		if err := e.timestamps.Validate(pkg.TimestampMs, now); err != nil {
			return nil, fmt.Errorf("package %d: %w", i, err)
		}
		signer, err := crypto.RecoverSigner(pkg.MessageHash[:], pkg.Signature[:])
		if err != nil {
			return nil, fmt.Errorf("package %d: %w", i, err)
		}
		signerIdx, err := e.registry.Index(signer)
		if err != nil {
			return nil, fmt.Errorf("package %d: %w", i, err)
		}

		for _, pt := range pkg.Points {
			feedIdx, wanted := indexOf[pt.FeedID]
			if !wanted {
				continue
			}
			st := states[feedIdx]
			if st.seen.Test(signerIdx) {
				continue // one counted value per signer per feed
			}
			st.seen.Set(signerIdx)
			if st.unique < e.threshold {
				st.values = append(st.values, pt.Value)
			}
			st.unique++
			if st.unique == e.threshold {
				satisfied++
			}
		}
		tail += pkg.Size
	}

	uniqueResults := make([]*big.Int, len(unique))
	for i, st := range states {
		if st.unique < e.threshold {
			return nil, fmt.Errorf("%w: feed %s has %d, need %d",
				ErrInsufficientSigners, unique[i], st.unique, e.threshold)
		}
		value, err := e.aggregate(st.values)
		if err != nil {
			return nil, fmt.Errorf("aggregating feed %s: %w", unique[i], err)
		}
		uniqueResults[i] = value
		e.logger.Debug("feed aggregated",
			zap.Stringer("feed", unique[i]),
			zap.Int("signers", st.unique),
			zap.String("value", value.String()))
	}

	results := make([]*big.Int, len(mapping))
	for i, pos := range mapping {
		results[i] = uniqueResults[pos]
	}
	return results, nil
}

// ExtractPayloadTimestamp is the strict decode-only mode: it requires every
// package in the payload to carry one identical, non-zero timestamp and
// returns that shared observation time. No signature or freshness checks are
// performed. Callers that need per-feed values must use GetValues instead;
// the two modes are deliberately separate entry points.
func (e *Engine) ExtractPayloadTimestamp(buf []byte) (time.Time, error) {
	loc, err := attestation.LocatePayload(buf)
	if err != nil {
		return time.Time{}, err
	}
	if loc.PackageCount == 0 {
		return time.Time{}, attestation.ErrEmptyPackageList
	}

	var shared uint64
	tail := loc.PackagesTailOffset
	for i := 0; i < loc.PackageCount; i++ {
		pkg, err := attestation.DecodePackageAt(buf, tail)
		if err != nil {
			return time.Time{}, fmt.Errorf("decoding package %d: %w", i, err)
		}
		if pkg.TimestampMs == 0 {
			return time.Time{}, fmt.Errorf("package %d: %w", i, ErrZeroTimestamp)
		}
		if i == 0 {
			shared = pkg.TimestampMs
		} else if pkg.TimestampMs != shared {
			return time.Time{}, fmt.Errorf("%w: package %d has %d, expected %d",
				ErrInconsistentTimestamps, i, pkg.TimestampMs, shared)
		}
		tail += pkg.Size
	}
	return time.UnixMilli(int64(shared)).UTC(), nil
}
