package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"depctl/internal/orchestration"
	"depctl/pkg/logging"
)

// Validator checks whether a discovered MongoDB host accepts a given
// credential by connecting and pinging the primary. Driver errors are
// wrapped with a redacted summary so raw URIs never reach logs.
type Validator struct {
	// ServerSelectionTimeout bounds each connection attempt inside the
	// driver; the caller's context bounds the attempt overall.
	ServerSelectionTimeout time.Duration
}

func NewValidator() *Validator {
	return &Validator{ServerSelectionTimeout: 2 * time.Second}
}

// Validate connects with the credential and pings. On success it
// returns the credential URI as the connection details for the
// consuming adapter. The returned error carries only a redacted
// connection summary.
func (v *Validator) Validate(ctx context.Context, host *orchestration.HostService, cred orchestration.Credential) (string, error) {
	opts := options.Client().
		ApplyURI(cred.URI).
		SetServerSelectionTimeout(v.ServerSelectionTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("connecting to %s: connection setup failed", Redact(cred.URI))
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			logging.Debug("Mongo", "Disconnect after validation failed: %v", err)
		}
	}()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return "", fmt.Errorf("ping to %s failed with %s credentials", Redact(cred.URI), cred.Label)
	}
	return cred.URI, nil
}
