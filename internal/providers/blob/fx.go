package blob

import (
	"github.com/rfpdock/rfpdock/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.blob",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config) (Storage, error) {
	if cfg.BlobEndpoint == "" {
		return &NoOpStorage{}, nil
	}
	return NewMinio(MinioConfig{
		Endpoint:  cfg.BlobEndpoint,
		AccessKey: cfg.BlobAccessKey,
		SecretKey: cfg.BlobSecretKey,
		Bucket:    cfg.BlobBucket,
		UseSSL:    cfg.BlobUseSSL,
	})
}
