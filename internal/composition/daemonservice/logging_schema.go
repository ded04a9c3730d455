package daemonservice

import (
	"strings"

	"sagachat/go-backend/internal/platform/privacylog"
)

const daemonComponentName = "daemonservice"

// actionCorrelationID ties log lines for one signed action together without
// exposing the signer's wallet.
func actionCorrelationID(kind, signerAddress string) string {
	trimmedKind := strings.TrimSpace(kind)
	signerFP := privacylog.FingerprintID(signerAddress)
	switch {
	case trimmedKind != "" && signerFP != "":
		return trimmedKind + ":" + signerFP
	case signerFP != "":
		return signerFP
	case trimmedKind != "":
		return trimmedKind
	default:
		return "n/a"
	}
}

func (s *Service) logInfo(operation, correlationID, message string, attrs ...any) {
	base := []any{
		"component", daemonComponentName,
		"operation", strings.TrimSpace(operation),
		"correlation_id", strings.TrimSpace(correlationID),
	}
	s.logger.Info(message, append(base, attrs...)...)
}

func (s *Service) logWarn(operation, correlationID, message string, attrs ...any) {
	base := []any{
		"component", daemonComponentName,
		"operation", strings.TrimSpace(operation),
		"correlation_id", strings.TrimSpace(correlationID),
	}
	s.logger.Warn(message, append(base, attrs...)...)
}

func (s *Service) recordErrorWithContext(category string, err error, operation, correlationID string, attrs ...any) {
	if err == nil {
		return
	}
	s.metrics.RecordError(category)
	base := []any{
		"component", daemonComponentName,
		"operation", strings.TrimSpace(operation),
		"category", strings.TrimSpace(category),
		"correlation_id", strings.TrimSpace(correlationID),
		"error", err.Error(),
	}
	s.logger.Error("service error", append(base, attrs...)...)
}
