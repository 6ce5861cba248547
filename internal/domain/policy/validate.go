package policy

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/okian/podium/internal/domain/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals // validator caches struct metadata

// Validate checks the policy's shape. Every failure wraps types.ErrInvalidValues.
func (p *Policy) Validate() error {
	if p == nil {
		return types.MissingValue("policy")
	}
	if err := structErr(validate.Struct(p)); err != nil {
		return err
	}
	for i := range p.AwardProfiles {
		if err := p.AwardProfiles[i].check(); err != nil {
			return errors.Wrapf(err, "awardProfiles[%d]", i)
		}
	}
	if p.AggregationRules != nil {
		if err := p.AggregationRules.check(); err != nil {
			return errors.Wrap(err, "aggregationRules")
		}
	}
	return nil
}

// Validate checks aggregation rules on their own, e.g. when supplied as an
// override alongside awards.
func (r *AggregationRules) Validate() error {
	if r == nil {
		return nil
	}
	if err := structErr(validate.Struct(r)); err != nil {
		return err
	}
	return r.check()
}

func (a *AwardProfile) check() error {
	for i := range a.QualityWinProfiles {
		if err := checkRankingRanges(a.QualityWinProfiles[i].RankingRanges); err != nil {
			return errors.Wrapf(err, "qualityWinProfiles[%d]", i)
		}
	}
	return nil
}

// checkRankingRanges requires inclusive, ascending, non-overlapping ranges.
func checkRankingRanges(ranges []RankingRange) error {
	prevHigh := 0
	for i, r := range ranges {
		lo, hi := r.RankRange[0], r.RankRange[1]
		if lo > hi {
			return types.InvalidValues("rankingRanges[%d]: low %d exceeds high %d", i, lo, hi)
		}
		if i > 0 && lo <= prevHigh {
			return types.InvalidValues("rankingRanges[%d]: [%d,%d] overlaps or precedes the previous range", i, lo, hi)
		}
		prevHigh = hi
	}
	return nil
}

func (r *AggregationRules) check() error {
	seen := make(map[string]struct{}, len(r.CountingBuckets))
	for _, b := range r.CountingBuckets {
		if _, dup := seen[b.BucketName]; dup {
			return types.InvalidValues("duplicate bucket %q", b.BucketName)
		}
		seen[b.BucketName] = struct{}{}
	}
	return nil
}

// structErr turns validator output into a single invalid-values error naming
// every offending field.
func structErr(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return types.InvalidValues("%v", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Namespace()+" ("+fe.Tag()+")")
	}
	sort.Strings(fields)
	return types.InvalidValues("policy fields failed validation: %s", strings.Join(fields, ", "))
}
