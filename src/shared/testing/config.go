package testing

import (
	"path"

	server_app "github.com/k0jin/acapella-maker/src/server/application"
	"github.com/k0jin/acapella-maker/src/shared/config"
	"github.com/k0jin/acapella-maker/src/shared/config/dev"
	"github.com/k0jin/acapella-maker/src/shared/config/local"
	"github.com/k0jin/acapella-maker/src/shared/values/envvar"
	worker_app "github.com/k0jin/acapella-maker/src/worker/application"
)

func ServerConfig(dbRegion string) server_app.Config {
	return server_app.Config{
		DynamoConfig:       DynamoConfig(dbRegion),
		RabbitMQURL:        RabbitMQHost,
		RabbitMQQueueName:  RabbitMQQueueName,
		CORSAllowedOrigins: []string{"*"},
		Port:               ServerPort,
		Log:                false,
	}
}

func WorkerConfig(dbRegion string, cloudStorageConfig config.LocalCloudStorage) worker_app.Config {
	return worker_app.Config{
		DynamoConfig:       DynamoConfig(dbRegion),
		CloudStorageConfig: cloudStorageConfig,
		RabbitMQURL:        RabbitMQHost,
		RabbitMQQueueName:  RabbitMQQueueName,
		YoutubeDLBinPath:   config.BinFromEnvOrPath(envvar.YOUTUBEDL_BIN_PATH, "yt-dlp"),
		DemucsBinPath:      config.BinFromEnvOrPath(envvar.DEMUCS_BIN_PATH, "demucs"),
		AubioBinPath:       config.BinFromEnvOrPath(envvar.AUBIO_BIN_PATH, "aubio"),
		WorkingDirPath:     path.Join(local.ProjectRoot(), "/src/worker/wd"),
	}
}

// DynamoDB
const (
	DynamoAccessKeyID     = dev.DynamoAccessKeyID
	DynamoSecretAccessKey = dev.DynamoSecretAccessKey
	DynamoDBHost          = dev.DynamoDBHost
)

func DynamoConfig(region string) config.LocalDynamo {
	return config.LocalDynamo{
		AccessKeyID:     DynamoAccessKeyID,
		SecretAccessKey: DynamoSecretAccessKey,
		Region:          region,
		Host:            DynamoDBHost,
	}
}

// RabbitMQ
const (
	RabbitMQHost      = dev.RabbitMQHost
	RabbitMQQueueName = "acapella-extractions-test"
)

// Server
const (
	ServerPort = ":5010"
)
