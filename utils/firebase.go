package utils

import (
	"context"
	"fmt"

	"sportevents/config"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// FirebaseApp is the shared Firebase application. Messaging, Auth and Firestore clients derive from it.
var FirebaseApp *firebase.App

// FirebaseInit initializes the Firebase App from the configured service account.
// Without a credentials file the application default credentials are used.
func FirebaseInit(ctx context.Context) (*firebase.App, error) {
	var opts []option.ClientOption
	if config.AppConfig.FirebaseCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.AppConfig.FirebaseCredentialsFile))
	}

	var fbConfig *firebase.Config
	if config.AppConfig.FirebaseProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: config.AppConfig.FirebaseProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: error initializing app: %w", err)
	}
	FirebaseApp = app
	return app, nil
}
