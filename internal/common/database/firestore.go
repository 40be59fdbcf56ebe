// internal/common/database/firestore.go
// Firestore client bootstrap through the Firebase Admin SDK

package database

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// FirestoreConfig selects the project and credentials
type FirestoreConfig struct {
	ProjectID       string
	CredentialsPath string
	CredentialsJSON string
}

// NewFirestoreClient initializes a Firebase app and returns its Firestore client
func NewFirestoreClient(ctx context.Context, config *FirestoreConfig) (*firestore.Client, error) {
	var opts []option.ClientOption
	switch {
	case config.CredentialsPath != "":
		opts = append(opts, option.WithCredentialsFile(config.CredentialsPath))
	case config.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(config.CredentialsJSON)))
	}

	var appConfig *firebase.Config
	if config.ProjectID != "" {
		appConfig = &firebase.Config{ProjectID: config.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get firestore client: %w", err)
	}

	return client, nil
}
