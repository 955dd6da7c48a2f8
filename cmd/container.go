// cmd/container.go
//
// Root composition root. Owns infrastructure (DB, Redis, S3) and wires the
// annotation module. This is the only place that knows about every adapter.
package main

import (
	"context"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/saiteja-tally/taggo/pkg/annotation"
	"github.com/saiteja-tally/taggo/pkg/annotation/annotationapi"
	"github.com/saiteja-tally/taggo/pkg/annotation/annotationinfra"
	"github.com/saiteja-tally/taggo/pkg/annotation/annotationsrv"
	"github.com/saiteja-tally/taggo/pkg/config"
	"github.com/saiteja-tally/taggo/pkg/logx"
	"github.com/saiteja-tally/taggo/pkg/ocrx"
	"github.com/saiteja-tally/taggo/pkg/ocrx/ocrtesseract"
)

// Container holds shared infrastructure and the composed annotation module.
type Container struct {
	Config *config.Config

	// Infrastructure
	DB       *sqlx.DB
	Redis    *redis.Client
	S3Client *s3.Client

	// Annotation module
	Blobs      annotation.BlobStore
	Service    *annotationsrv.Service
	Handlers   *annotationapi.Handlers
	recognizer interface{ Close() error }
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initAnnotationModule()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure: DB, Redis, payload storage
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Database
	db, err := sqlx.Connect("postgres", c.Config.Database.DSN())
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
	c.DB = db
	logx.Info("  ✅ Database connected")

	// 2. Redis
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
		logx.Fatalf("Failed to connect to Redis: %v (Redis is required)", err)
	}
	logx.Info("  ✅ Redis connected")

	// 3. Payload storage
	awsCfg, err := awsConfig.LoadDefaultConfig(context.TODO(),
		awsConfig.WithRegion(c.Config.Storage.AWSRegion))
	if err != nil {
		logx.Fatalf("Unable to load AWS SDK config: %v", err)
	}
	c.S3Client = s3.NewFromConfig(awsCfg)
	c.Blobs = annotationinfra.NewS3BlobStore(c.S3Client, annotationinfra.Buckets{
		Default:   c.Config.Storage.DefaultBucket,
		ForStatus: c.Config.Storage.StatusBuckets,
	})
	logx.Infof("  ✅ S3 payload storage configured (default bucket: %s, region: %s)",
		c.Config.Storage.DefaultBucket, c.Config.Storage.AWSRegion)

	logx.Info("✅ Infrastructure initialized")
}

// ---------------------------------------------------------------------------
// Annotation module
// ---------------------------------------------------------------------------

func (c *Container) initAnnotationModule() {
	logx.Info("📦 Initializing annotation module...")

	repo := annotationinfra.NewPostgresRecordRepository(c.DB)
	drafts := annotationinfra.NewRedisDraftStore(c.Redis, c.Config.Redis.DraftTTL)
	c.Service = annotationsrv.New(repo, c.Blobs, drafts, nil)

	recognizer := c.initRecognizer()
	c.Handlers = annotationapi.NewHandlers(c.Service, c.Blobs, recognizer)

	logx.Info("✅ Annotation module initialized")
}

func (c *Container) initRecognizer() ocrx.Recognizer {
	switch c.Config.OCR.Backend {
	case "http":
		logx.Infof("  ✅ HTTP recognizer configured (endpoint: %s)", c.Config.OCR.Endpoint)
		return ocrx.NewHTTPRecognizer(c.Config.OCR.Endpoint, nil, nil)
	case "tesseract":
		rec, err := ocrtesseract.New(c.Config.OCR.Languages...)
		if err != nil {
			logx.Fatalf("Failed to initialize tesseract: %v", err)
		}
		c.recognizer = rec
		logx.Infof("  ✅ Tesseract recognizer configured (languages: %v)", c.Config.OCR.Languages)
		return rec
	case "":
		logx.Warn("  ⚠️ No recognition backend configured, get_ocr_text disabled")
		return nil
	default:
		logx.Fatalf("Unknown OCR_BACKEND: %s (use 'http' or 'tesseract')", c.Config.OCR.Backend)
		return nil
	}
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.recognizer != nil {
		if err := c.recognizer.Close(); err != nil {
			logx.Errorf("Error closing recognizer: %v", err)
		}
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("  ✅ Database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup complete")
}
