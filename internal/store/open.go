package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mergington/announcements/config"
	"github.com/mergington/announcements/internal/db"
	"github.com/mergington/announcements/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AnnouncementStore is implemented by every announcement repository.
type AnnouncementStore interface {
	Insert(ctx context.Context, announcement types.Announcement) (primitive.ObjectID, error)
	FindOne(ctx context.Context, id primitive.ObjectID) (types.Announcement, error)
	Find(ctx context.Context, filter AnnouncementFilter) ([]types.Announcement, error)
	UpdateOne(ctx context.Context, id primitive.ObjectID, patch types.AnnouncementPatch) (UpdateResult, error)
	DeleteOne(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// TeacherStore is implemented by every teacher repository.
type TeacherStore interface {
	GetByUsername(ctx context.Context, username string) (types.Teacher, error)
	Create(ctx context.Context, teacher types.Teacher) (types.Teacher, error)
}

// Backend bundles the repositories of one store backend with the
// connection that serves them.
type Backend struct {
	Name          string
	Announcements AnnouncementStore
	Teachers      TeacherStore

	sqlDB       *sql.DB
	mongoClient *mongo.Client
}

// Open connects to the backend selected by cfg.Store.Backend.
func Open(ctx context.Context, cfg config.Config) (*Backend, error) {
	switch cfg.Store.Backend {
	case "", config.StoreMongo:
		client, database, err := db.OpenMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		return &Backend{
			Name:          config.StoreMongo,
			Announcements: NewMongoAnnouncementRepository(database),
			Teachers:      NewMongoTeacherRepository(database),
			mongoClient:   client,
		}, nil
	case config.StorePostgres:
		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &Backend{
			Name:          config.StorePostgres,
			Announcements: NewPostgresAnnouncementRepository(conn),
			Teachers:      NewPostgresTeacherRepository(conn),
			sqlDB:         conn,
		}, nil
	case config.StoreMemory:
		return &Backend{
			Name:          config.StoreMemory,
			Announcements: NewMemoryAnnouncementRepository(),
			Teachers:      NewMemoryTeacherRepository(),
		}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// Ping checks that the backend connection is alive.
func (b *Backend) Ping(ctx context.Context) error {
	switch {
	case b.sqlDB != nil:
		return b.sqlDB.PingContext(ctx)
	case b.mongoClient != nil:
		return b.mongoClient.Ping(ctx, nil)
	default:
		return nil
	}
}

// Close releases the backend connection.
func (b *Backend) Close(ctx context.Context) error {
	switch {
	case b.sqlDB != nil:
		return b.sqlDB.Close()
	case b.mongoClient != nil:
		return b.mongoClient.Disconnect(ctx)
	default:
		return nil
	}
}
