package db

import (
	"context"
	"fmt"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"spendbox-backend-go/internal/config"
)

// fsClient is the global Firestore client instance.
var fsClient *firestore.Client

// InitFirestore creates the Firestore client from the application configuration.
// When GOOGLE_APPLICATION_CREDENTIALS is unset the client falls back to
// Application Default Credentials, which is the common case on GCP runtimes.
func InitFirestore(ctx context.Context, appConfig *config.Config) error {
	if appConfig == nil {
		return fmt.Errorf("InitFirestore: appConfig cannot be nil")
	}
	if appConfig.FirestoreProjectID == "" {
		return fmt.Errorf("InitFirestore: FIRESTORE_PROJECT_ID is required")
	}

	var opts []option.ClientOption
	if appConfig.GoogleApplicationCredentials != "" {
		if _, err := os.Stat(appConfig.GoogleApplicationCredentials); os.IsNotExist(err) {
			log.Printf("Warning: credentials file does not exist: %s", appConfig.GoogleApplicationCredentials)
		}
		opts = append(opts, option.WithCredentialsFile(appConfig.GoogleApplicationCredentials))
	} else {
		log.Println("Initializing Firestore using Application Default Credentials (ADC).")
	}

	client, err := firestore.NewClient(ctx, appConfig.FirestoreProjectID, opts...)
	if err != nil {
		return fmt.Errorf("firestore.NewClient: %w", err)
	}
	fsClient = client
	return nil
}

// GetFirestoreClient returns the global Firestore client.
// Callers should check for nil, which means InitFirestore was not called or failed.
func GetFirestoreClient() *firestore.Client {
	if fsClient == nil {
		log.Println("Warning: GetFirestoreClient called before InitFirestore or InitFirestore failed.")
	}
	return fsClient
}

// CloseFirestore releases the client's underlying connections.
func CloseFirestore() error {
	if fsClient == nil {
		return nil
	}
	return fsClient.Close()
}
