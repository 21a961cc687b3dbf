/*
Package native implements parser.Adapter for the real binary replay format. It decodes two independent sections: a header
section (engine build, playlist, map, mutators, header-level goal
tickmarks, final score, per-player header stats) and a network section (an
ordered stream of per-tick actor updates plus boost-pad pickup attribute
flips).

Layout (all integers little-endian, all strings uint16-length-prefixed
UTF-8):

	magic         [4]byte  "RLRP"
	formatVersion uint32
	headerSize    int32
	headerSection []byte   (headerSize bytes, see decodeHeaderSection)
	networkSize   int32
	networkSection []byte  (networkSize bytes, see decodeNetworkSection)

A truncated or short-circuited network section degrades to
status=degraded with frames_emitted reflecting how many frames were
successfully read before the cutoff (status=unavailable when no frame was
read), never a hard parse failure — only a truncated *header* section is
fatal (ErrHeaderUndecodable).
*/
package native

const (
	formatMagic        = "RLRP"
	formatVersionKnown = 1

	// flagSupersonic .. flagDoubleJumpKnown are bits in
	// the per-player component-flags byte. The three "Known" bits record
	// whether the underlying component flag was exposed by this replay at
	// all — if a Known bit is unset, the
	// corresponding *bool in replay.PlayerState stays nil.
	flagSupersonic      = 1 << 0
	flagOnGround        = 1 << 1
	flagDemolished      = 1 << 2
	flagJumpingKnown    = 1 << 3
	flagJumping         = 1 << 4
	flagDodgingKnown    = 1 << 5
	flagDodging         = 1 << 6
	flagDoubleJumpKnown = 1 << 7
)

// boostScale rescales the raw engine boost byte (0..255) into [0,100]
// .
const boostScale = 100.0 / 255.0
