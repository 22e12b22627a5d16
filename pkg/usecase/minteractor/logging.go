// 指示: miu200521358
package minteractor

import "github.com/miu200521358/mu_rigbake/pkg/shared/base/logging"

// logBakeInfo はベイク処理のINFOログを出力する。
func logBakeInfo(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Info(format, params...)
	if logger.IsVerboseEnabled(logging.VERBOSE_INDEX_BAKE) {
		logger.Verbose(logging.VERBOSE_INDEX_BAKE, "[INFO] "+format, params...)
	}
}

// logBakeDebug はベイク処理のDEBUGログを出力する。
func logBakeDebug(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Debug(format, params...)
	if logger.IsVerboseEnabled(logging.VERBOSE_INDEX_BAKE) {
		logger.Verbose(logging.VERBOSE_INDEX_BAKE, "[DEBUG] "+format, params...)
	}
}

// logBakeWarn はベイク処理のWARNログを出力する。
func logBakeWarn(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Warn(format, params...)
	if logger.IsVerboseEnabled(logging.VERBOSE_INDEX_BAKE) {
		logger.Verbose(logging.VERBOSE_INDEX_BAKE, "[WARN] "+format, params...)
	}
}

// logStateInfo はリグ状態処理のINFOログを出力する。
func logStateInfo(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Info(format, params...)
	if logger.IsVerboseEnabled(logging.VERBOSE_INDEX_STATE) {
		logger.Verbose(logging.VERBOSE_INDEX_STATE, "[INFO] "+format, params...)
	}
}

// logStateWarn はリグ状態処理のWARNログを出力する。
func logStateWarn(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Warn(format, params...)
	if logger.IsVerboseEnabled(logging.VERBOSE_INDEX_STATE) {
		logger.Verbose(logging.VERBOSE_INDEX_STATE, "[WARN] "+format, params...)
	}
}
