// Package mutation classifies the result of a conditional write and maps it
// onto the error taxonomy.
package mutation

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/PepaPanda/uu-backend-project/internal/apperr"
	"github.com/PepaPanda/uu-backend-project/internal/store"
)

type Outcome int

const (
	// Applied: acknowledged, matched and changed.
	Applied Outcome = iota
	// Unchanged: the precondition held but the document already had the target state.
	Unchanged
	// NoMatch: no document satisfied the filter.
	NoMatch
	// Failed: the store raised an error or did not acknowledge the write.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Unchanged:
		return "unchanged"
	case NoMatch:
		return "no_match"
	default:
		return "failed"
	}
}

func Classify(res store.Result, err error) Outcome {
	switch {
	case err != nil, !res.Acknowledged:
		return Failed
	case res.Matched == 0:
		return NoMatch
	case res.Changed == 0:
		return Unchanged
	default:
		return Applied
	}
}

// Expect tells Run how a write's NoMatch and Unchanged outcomes map to errors
// for one operation. An empty Unchanged kind makes the write idempotent.
type Expect struct {
	NoMatch      apperr.Kind
	NoMatchMsg   string
	Unchanged    apperr.Kind
	UnchangedMsg string
	DuplicateMsg string
}

// Write performs one conditional write.
type Write func(ctx context.Context) (store.Result, error)

type Protocol struct {
	log *logrus.Logger
}

func NewProtocol(log *logrus.Logger) *Protocol {
	return &Protocol{log: log}
}

// Run executes write unless ctx is already done, classifies the result and
// returns the outcome together with the error the caller should surface.
func (p *Protocol) Run(ctx context.Context, op string, exp Expect, write Write) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Failed, apperr.Storage(op, err)
	}

	res, err := write(ctx)
	outcome := Classify(res, err)

	entry := p.log.WithFields(logrus.Fields{
		"op":      op,
		"outcome": outcome.String(),
		"matched": res.Matched,
		"changed": res.Changed,
	})

	switch outcome {
	case Failed:
		if errors.Is(err, store.ErrDuplicate) {
			entry.Info("unique key rejected write")
			return outcome, apperr.Wrap(apperr.KindDuplicate, op, orMessage(exp.DuplicateMsg, "Record already exists"), err)
		}
		if err == nil {
			entry.Error("write not acknowledged")
			return outcome, apperr.Wrap(apperr.KindStorage, op, "storage write was not acknowledged", nil)
		}
		entry.WithError(err).Error("write failed")
		return outcome, apperr.Storage(op, err)
	case NoMatch:
		entry.Debug("precondition not met")
		return outcome, apperr.New(orDefault(exp.NoMatch, apperr.KindNotFound), op, exp.NoMatchMsg)
	case Unchanged:
		entry.Debug("write matched without change")
		if exp.Unchanged == "" {
			return outcome, nil
		}
		return outcome, apperr.New(exp.Unchanged, op, exp.UnchangedMsg)
	default:
		entry.Debug("write applied")
		return outcome, nil
	}
}

func orDefault(k, def apperr.Kind) apperr.Kind {
	if k == "" {
		return def
	}
	return k
}

func orMessage(msg, def string) string {
	if msg == "" {
		return def
	}
	return msg
}
