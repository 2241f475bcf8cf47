package gen

// ErrorKind identifies a fatal compilation failure. Kinds are part of the
// output contract: the caller dispatches on them, so values are stable.
type ErrorKind string

const (
	ErrPipetteDoesNotExist   ErrorKind = "PIPETTE_DOES_NOT_EXIST"
	ErrPipetteVolumeExceeded ErrorKind = "PIPETTE_VOLUME_EXCEEDED"
	ErrInsufficientTips      ErrorKind = "INSUFFICIENT_TIPS"
	ErrLabwareDoesNotExist   ErrorKind = "LABWARE_DOES_NOT_EXIST"
	ErrWellDoesNotExist      ErrorKind = "WELL_DOES_NOT_EXIST"
	ErrMixBadVolume          ErrorKind = "MIX_BAD_VOLUME"
	ErrBadOperationArgs      ErrorKind = "BAD_OPERATION_ARGS"
)

// CommandError is a fatal validation failure. The enclosing operation aborts
// and every instruction compiled for it is discarded.
type CommandError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`
}

func (e *CommandError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// WarningKind identifies a non-fatal notice surfaced alongside a successful
// compilation.
type WarningKind string

const (
	// WarnAspirateMoreThanWellContents: the tracked source volume was lower
	// than the requested aspirate volume; the well is clamped at zero.
	WarnAspirateMoreThanWellContents WarningKind = "ASPIRATE_MORE_THAN_WELL_CONTENTS"
	// WarnAspirateFromPristineWell: the source well has no tracked liquid at all.
	WarnAspirateFromPristineWell WarningKind = "ASPIRATE_FROM_PRISTINE_WELL"
	// WarnPreWetNotImplemented: the pre-wet volume is undefined upstream, so
	// the flag is acknowledged and skipped rather than guessed at.
	WarnPreWetNotImplemented WarningKind = "PRE_WET_NOT_IMPLEMENTED"
)

// CommandWarning is an informational notice. Warnings never abort compilation.
type CommandWarning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}
