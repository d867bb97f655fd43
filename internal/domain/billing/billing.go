package billing

import "context"

const StatusActive = "ACTIVE"

// Account is the billing service's account reference. The patient service
// never persists it; the account id is used transiently for logging and
// the create response.
type Account struct {
	PatientID string `json:"patientId"`
	AccountID string `json:"accountId"`
	Status    string `json:"status"`
}

// Provisioner is the synchronous billing call. Implementations map
// transport failures to apperror.KindUnavailable (retryable) and
// application-level rejections to apperror.KindRejected (not retryable).
type Provisioner interface {
	Provision(ctx context.Context, patientID, name, email string) (*Account, error)
}
