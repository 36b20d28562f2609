package mongo

import (
	"context"
	"time"

	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/fastygo/bizdesk/internal/config"
)

// NewClient connects to the document store and validates the connection.
func NewClient(ctx context.Context, cfg config.MongoConfig, logger *zap.Logger) (*mongodriver.Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongodriver.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("connected to mongo", zap.String("database", cfg.Database))
	return client, nil
}

// Close disconnects the client and logs the result.
func Close(ctx context.Context, client *mongodriver.Client, logger *zap.Logger) error {
	if client == nil {
		return nil
	}
	if err := client.Disconnect(ctx); err != nil {
		return err
	}
	if logger != nil {
		logger.Info("mongo client disconnected")
	}
	return nil
}
