package rpc

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/casper-gadget/gadget/checkpoint"
	"github.com/prysmaticlabs/casper-gadget/gadget/dispatcher"
	"github.com/prysmaticlabs/casper-gadget/gadget/header"
	"github.com/prysmaticlabs/casper-gadget/gadget/ledger"
	"github.com/prysmaticlabs/casper-gadget/gadget/registry"
)

var (
	notFoundErrors = []error{
		ledger.ErrUnknownChain,
		dispatcher.ErrUnknownChain,
		checkpoint.ErrUnknownCheckpoint,
		checkpoint.ErrUnknownSource,
		checkpoint.ErrUnknownTarget,
		checkpoint.ErrUnknownParent,
		registry.ErrUnknownValidator,
	}
	badRequestErrors = []error{
		checkpoint.ErrInvalidHeader,
		header.ErrNoBlockNumber,
		dispatcher.ErrInvalidHeights,
		dispatcher.ErrInvalidSignature,
		dispatcher.ErrNotValidator,
		registry.ErrZeroAddress,
		registry.ErrZeroStake,
	}
	forbiddenErrors = []error{
		registry.ErrUnauthorized,
	}
	conflictErrors = []error{
		checkpoint.ErrAlreadyReported,
		checkpoint.ErrHeightNotAboveParent,
		checkpoint.ErrNotEpochBoundary,
		checkpoint.ErrBelowHead,
		checkpoint.ErrTargetNotAboveSource,
		checkpoint.ErrSourceNotJustified,
		checkpoint.ErrAlreadyJustified,
		checkpoint.ErrConflictsWithHead,
		checkpoint.ErrTransitionMismatch,
		dispatcher.ErrInvalidVote,
		dispatcher.ErrNonMonotonicVote,
		dispatcher.ErrHeightMismatch,
		registry.ErrAlreadyStaked,
		registry.ErrAlreadyEvicted,
		registry.ErrUnexpectedHeight,
		registry.ErrWeightOverflow,
	}
)

// statusCode maps a core error to the HTTP status it is reported with.
func statusCode(err error) int {
	switch {
	case isAny(err, notFoundErrors):
		return http.StatusNotFound
	case isAny(err, badRequestErrors):
		return http.StatusBadRequest
	case isAny(err, forbiddenErrors):
		return http.StatusForbidden
	case isAny(err, conflictErrors):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
