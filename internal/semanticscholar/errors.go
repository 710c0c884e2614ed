package semanticscholar

import (
	"errors"
	"fmt"
)

// Kind classifies a failed request.
type Kind int

const (
	// KindRateLimited: HTTP 429 persisted through every retry.
	KindRateLimited Kind = iota
	// KindUnavailable: HTTP 5xx persisted through every retry.
	KindUnavailable
	// KindTimeout: the request or a dial deadline expired.
	KindTimeout
	// KindNetwork: connection-level failure.
	KindNetwork
	// KindHTTP: any other non-success status, surfaced without retry.
	KindHTTP
	// KindMalformed: a 2xx response whose body did not decode.
	KindMalformed
)

// RequestError carries the classification of a failed API call. Status
// is zero for transport-level failures.
type RequestError struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *RequestError) Error() string {
	switch e.Kind {
	case KindRateLimited:
		return fmt.Sprintf("semantic scholar: rate limited (status %d)", e.Status)
	case KindUnavailable:
		return fmt.Sprintf("semantic scholar: service unavailable (status %d)", e.Status)
	case KindTimeout:
		return fmt.Sprintf("semantic scholar: request timed out: %v", e.Err)
	case KindNetwork:
		return fmt.Sprintf("semantic scholar: network error: %v", e.Err)
	case KindHTTP:
		return fmt.Sprintf("semantic scholar: request failed with status %d", e.Status)
	case KindMalformed:
		return fmt.Sprintf("semantic scholar: malformed response: %v", e.Err)
	}
	return fmt.Sprintf("semantic scholar: request failed: %v", e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// UserMessage renders the operator-facing explanation for this failure.
func (e *RequestError) UserMessage() string {
	switch e.Kind {
	case KindRateLimited:
		return "La limite de requêtes Semantic Scholar est atteinte. Les tentatives ont échoué malgré plusieurs essais. Patientez quelques minutes ou configurez une clé API pour augmenter les limites."
	case KindUnavailable:
		return "Le service Semantic Scholar est momentanément indisponible. Veuillez réessayer plus tard."
	case KindHTTP:
		return fmt.Sprintf("La requête Semantic Scholar a échoué avec le statut %d.", e.Status)
	case KindTimeout:
		return "La requête vers Semantic Scholar a expiré. Vérifiez votre connexion puis réessayez."
	}
	return "Une erreur inattendue est survenue lors de la communication avec Semantic Scholar."
}

// UserMessage resolves the operator-facing text for any error coming out
// of the client.
func UserMessage(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.UserMessage()
	}
	return "Une erreur inattendue est survenue lors de la communication avec Semantic Scholar."
}
