// Package fault implements the error policy shared by all public operations:
// client-correctable rejections and empty-result conditions pass through
// untouched, anything else is logged once and replaced with an opaque error
// so that internal detail never reaches callers.
package fault

import (
	"github.com/juju/errors"
	"github.com/rs/zerolog/log"
)

// ErrProcessing is what callers see when an operation fails for a reason
// they cannot correct.
var ErrProcessing = errors.ConstError("error processing request")

// Wrap applies the propagation policy to err at a public operation boundary.
// op names the operation for the server-side log line.
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errors.BadRequest) || errors.Is(err, errors.NotFound) {
		return err
	}
	if errors.Is(err, ErrProcessing) {
		// Already logged and masked at an inner boundary.
		return err
	}
	log.Error().Err(err).Str("op", op).Msg("Processing error")
	return ErrProcessing
}
