/*
Package parser defines the pluggable replay-decoding contract.
An Adapter decodes a Header and, independently, a network frame stream; it
must never panic or return a naked error from ParseNetwork. Failures
surface as diagnostics on the returned replay.NetworkFrames, so a corrupt
section never escapes the decoder boundary as an unhandled panic.

Two implementations ship in this module: nulladapter (always available,
degrades to header-only) and native (the real binary decoder). Both satisfy
Adapter; callers select one by name.
*/
package parser

import (
	"errors"

	"github.com/rlcoach/rlcoach/internal/replay"
)

// ErrHeaderUndecodable is a ParseHeader failure: the header section could
// not be decoded at all. The pipeline turns this into the error envelope.
var ErrHeaderUndecodable = errors.New("header_undecodable")

// Adapter is the pluggable parser contract.
type Adapter interface {
	// ParseHeader decodes the replay header. A non-nil error is always
	// ErrHeaderUndecodable-wrapped and is fatal to the run.
	ParseHeader(data []byte) (*replay.Header, error)

	// ParseNetwork decodes the network frame stream. It never returns an
	// error; failures are carried in the returned NetworkFrames'
	// Diagnostics.
	ParseNetwork(data []byte) replay.NetworkFrames

	// Name identifies the adapter (e.g. "null", "native").
	Name() string

	// Version is the adapter's own semantic version.
	Version() string

	// SupportsNetworkParsing reports whether ParseNetwork can ever return
	// frames for this adapter.
	SupportsNetworkParsing() bool
}

// Known parser degradation error-code tokens.
const (
	ErrCodeNetworkError     = "network_error"
	ErrCodeUnknownAttribute = "unknown_attribute"
	ErrCodeCRCFailNetwork   = "crc_fail_network"
	ErrCodeResourceExceeded = "parser_resource_exceeded"
)

// maxErrorDetailLen is the schema bound on NetworkDiagnostics.ErrorDetail.
const maxErrorDetailLen = 512

// TruncateDetail bounds detail to the schema's 512-character limit.
func TruncateDetail(detail string) string {
	if len(detail) > maxErrorDetailLen {
		return detail[:maxErrorDetailLen]
	}
	return detail
}
