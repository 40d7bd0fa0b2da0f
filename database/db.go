package database

import (
	"context"
	"fmt"
	"time"

	"sportevents/config"
	"sportevents/utils"

	"cloud.google.com/go/firestore"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoClient is the global MongoDB client instance.
var MongoClient *mongo.Client

// FirestoreClient is set when STORE_BACKEND is "firestore".
var FirestoreClient *firestore.Client

// InitDB initializes the MongoDB connection.
// An unreachable server is logged, not fatal: the repository serves stale data until it comes back.
func InitDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(config.AppConfig.DatabaseURL).
		SetServerSelectionTimeout(5 * time.Second)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	MongoClient = client

	if err := client.Ping(ctx, nil); err != nil {
		utils.GetLogger().Warn("MongoDB is not reachable yet", zap.Error(err))
		return nil
	}
	utils.GetLogger().Info("Connected to MongoDB successfully")
	return nil
}

// Database returns the configured application database.
func Database() *mongo.Database {
	return MongoClient.Database(config.AppConfig.DatabaseName)
}

// InitFirestore opens a Firestore client from the shared Firebase app.
func InitFirestore(ctx context.Context) error {
	if utils.FirebaseApp == nil {
		return fmt.Errorf("firestore: firebase app is not initialized")
	}
	client, err := utils.FirebaseApp.Firestore(ctx)
	if err != nil {
		return fmt.Errorf("firestore: failed to open client: %w", err)
	}
	FirestoreClient = client
	return nil
}

// Close releases whichever store clients were opened.
func Close(ctx context.Context) {
	if MongoClient != nil {
		if err := MongoClient.Disconnect(ctx); err != nil {
			utils.GetLogger().Warn("failed to disconnect MongoDB", zap.Error(err))
		}
	}
	if FirestoreClient != nil {
		if err := FirestoreClient.Close(); err != nil {
			utils.GetLogger().Warn("failed to close Firestore", zap.Error(err))
		}
	}
}
