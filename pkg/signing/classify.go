package signing

// Phase names one stage of the polling workflow.
type Phase int

const (
	// PhaseValidating covers the interval between submission and the
	// service finishing its validation of the package.
	PhaseValidating Phase = iota + 1

	// PhaseSigning covers the interval between a successful validation and
	// the signed files becoming available.
	PhaseSigning
)

func (p Phase) String() string {
	switch p {
	case PhaseValidating:
		return "validation"
	case PhaseSigning:
		return "signing"
	default:
		return "unknown phase"
	}
}

// Decision is the outcome of classifying one status report within a phase.
// Exactly one decision applies to any report.
type Decision int

const (
	// DecideWait means the report is not terminal; poll again.
	DecideWait Decision = iota

	// DecideAdvance means validation passed; move to the signing phase.
	DecideAdvance

	// DecideInvalid means validation failed; the validation_url has details.
	DecideInvalid

	// DecideNeedsReview means the version is valid but cannot be signed
	// without a manual review.
	DecideNeedsReview

	// DecideSuccess means the signed files are ready for download.
	DecideSuccess
)

// Classify maps a status report to the decision for the given phase. It is a
// pure function of (phase, report): feeding the same report twice yields the
// same decision.
func Classify(phase Phase, r *StatusReport) Decision {
	switch phase {
	case PhaseValidating:
		if !r.Processed {
			return DecideWait
		}
		// Invalid wins over everything else once processing finished.
		if !r.Valid {
			return DecideInvalid
		}
		return DecideAdvance
	case PhaseSigning:
		if r.Processed && !r.Valid {
			return DecideInvalid
		}
		if r.Valid && !r.AutoSigned() {
			return DecideNeedsReview
		}
		// An empty file list is never terminal, even when the version is
		// active and reviewed: wait for the files to populate.
		if r.Active && r.Reviewed && len(r.Files) > 0 {
			return DecideSuccess
		}
		return DecideWait
	default:
		return DecideWait
	}
}
