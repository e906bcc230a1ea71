package core

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// Translate classifies a fault and builds the uniform error envelope. A
// fresh ErrorID is generated per incident; the full diagnostic text goes
// into ErrorDetails (log sink territory), never into ErrorMessage for
// unclassified faults.
func Translate(err error) ErrorEnvelope {
	envelope := ErrorEnvelope{
		ErrorID:      uuid.NewString(),
		ErrorDetails: fmt.Sprintf("%+v", err),
	}

	if IsDomainFault(err) {
		envelope.StatusCode = http.StatusBadRequest
		envelope.ErrorMessage = fmt.Sprintf("%s. ErrorId: [%s]", err.Error(), envelope.ErrorID)
		return envelope
	}

	envelope.StatusCode = http.StatusInternalServerError
	envelope.ErrorMessage = fmt.Sprintf(
		"Unhandled exception occurred. Try again or contact system administrator. ErrorId: %s",
		envelope.ErrorID)
	return envelope
}
