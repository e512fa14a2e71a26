package main

import (
	"path"

	"github.com/k0jin/acapella-maker/src/shared/config"
	"github.com/k0jin/acapella-maker/src/shared/config/dev"
	"github.com/k0jin/acapella-maker/src/shared/config/local"
	"github.com/k0jin/acapella-maker/src/shared/config/prod"
	"github.com/k0jin/acapella-maker/src/shared/lib/env"
	"github.com/k0jin/acapella-maker/src/shared/values/envvar"
	"github.com/k0jin/acapella-maker/src/worker/application"
)

func main() {
	var appConfig application.Config

	switch env.Get() {
	case env.Production:
		appConfig = application.Config{
			DynamoConfig: config.ProdDynamo{
				AccessKeyID:     envvar.MustGet(envvar.AWS_ACCESS_KEY_ID),
				SecretAccessKey: envvar.MustGet(envvar.AWS_SECRET_ACCESS_KEY),
				Region:          prod.DynamoDBRegion,
			},
			CloudStorageConfig: config.ProdCloudStorage{
				StorageHost: prod.GOOGLE_STORAGE_HOST,
				SecretKey:   envvar.MustGet(envvar.GOOGLE_CLOUD_KEY),
				BucketName:  envvar.MustGet(envvar.GOOGLE_CLOUD_STORAGE_BUCKET_NAME),
			},
			RabbitMQURL:       envvar.MustGet(envvar.RABBITMQ_URL),
			RabbitMQQueueName: envvar.MustGet(envvar.RABBITMQ_QUEUE_NAME),
			YoutubeDLBinPath:  envvar.MustGet(envvar.YOUTUBEDL_BIN_PATH),
			DemucsBinPath:     envvar.MustGet(envvar.DEMUCS_BIN_PATH),
			AubioBinPath:      envvar.MustGet(envvar.AUBIO_BIN_PATH),
			WorkingDirPath:    envvar.MustGet(envvar.WORKING_DIR_PATH),
		}

	case env.Development:
		appConfig = application.Config{
			DynamoConfig: dev.DynamoConfig,
			// using prod for now because the local fake GCS doesn't persist
			CloudStorageConfig: config.ProdCloudStorage{
				StorageHost: prod.GOOGLE_STORAGE_HOST,
				SecretKey:   envvar.MustGet(envvar.GOOGLE_CLOUD_KEY),
				BucketName:  envvar.MustGet(envvar.GOOGLE_CLOUD_STORAGE_BUCKET_NAME),
			},
			RabbitMQURL:       dev.RabbitMQHost,
			RabbitMQQueueName: dev.RabbitMQQueueName,
			YoutubeDLBinPath:  envvar.MustGet(envvar.YOUTUBEDL_BIN_PATH),
			DemucsBinPath:     envvar.MustGet(envvar.DEMUCS_BIN_PATH),
			AubioBinPath:      envvar.MustGet(envvar.AUBIO_BIN_PATH),
			WorkingDirPath:    path.Join(local.ProjectRoot(), "/src/worker/wd"),
		}
	default:
		panic("Unexpected environment")
	}

	app := application.NewApp(appConfig)
	if err := app.Start(); err != nil {
		panic(err)
	}
}
