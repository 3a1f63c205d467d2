package assembler

import (
	"errors"

	"github.com/fastlay-project/fastlay/pkg/preset"
)

var (
	// ErrAssetMissing reports a missing preset, font directory, template or price bar.
	ErrAssetMissing = preset.ErrAssetMissing

	// ErrSourceImageUnavailable reports that no product photo could be resolved.
	ErrSourceImageUnavailable = errors.New("source image unavailable")

	// ErrComposition reports an unexpected failure while painting or encoding the layout.
	ErrComposition = errors.New("layout composition failed")
)
