package decoder

import qrcodec "github.com/ericlevine/qrcodec"

func formatError(stage qrcodec.Stage, value any, format string, args ...any) error {
	return qrcodec.NewStageError(stage, qrcodec.ErrFormat, value, format, args...)
}

func dataError(value any, format string, args ...any) error {
	return qrcodec.NewStageError(qrcodec.StageBitstream, qrcodec.ErrData, value, format, args...)
}

func checksumError(value any, format string, args ...any) error {
	return qrcodec.NewStageError(qrcodec.StageConstruct, qrcodec.ErrChecksum, value, format, args...)
}
