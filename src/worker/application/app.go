package application

import (
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/guregu/dynamo"
	"github.com/rabbitmq/amqp091-go"
	"github.com/k0jin/acapella-maker/src/shared/acquire"
	"github.com/k0jin/acapella-maker/src/shared/audio/codec"
	"github.com/k0jin/acapella-maker/src/shared/config"
	extractionentity "github.com/k0jin/acapella-maker/src/shared/extraction/entity"
	extractionstorage "github.com/k0jin/acapella-maker/src/shared/extraction/storage"
	dynamolib "github.com/k0jin/acapella-maker/src/shared/lib/dynamo"
	"github.com/k0jin/acapella-maker/src/shared/lib/executor"
	"github.com/k0jin/acapella-maker/src/shared/lib/rabbitmq"
	"github.com/k0jin/acapella-maker/src/shared/pipeline"
	"github.com/k0jin/acapella-maker/src/shared/separate"
	"github.com/k0jin/acapella-maker/src/shared/tempo"
	cloudstorage "github.com/k0jin/acapella-maker/src/worker/internal/application/cloud_storage/entity"
	filestore "github.com/k0jin/acapella-maker/src/worker/internal/application/cloud_storage/store"
	"github.com/k0jin/acapella-maker/src/worker/internal/application/jobs/extract"
	"github.com/k0jin/acapella-maker/src/worker/internal/application/jobs/job_router"
	"github.com/k0jin/acapella-maker/src/worker/internal/application/jobs/save_result"
	"github.com/k0jin/acapella-maker/src/worker/internal/application/jobs/start"
	"github.com/k0jin/acapella-maker/src/worker/internal/application/worker"
	"github.com/k0jin/acapella-maker/src/worker/internal/lib/cerr"
	"github.com/k0jin/acapella-maker/src/worker/internal/lib/storagepath"
	"google.golang.org/api/option"
)

func must[T any](t T, err error) T {
	if err != nil {
		panic(err)
	}

	return t
}

type App struct {
	worker worker.QueueWorker
}

type Config struct {
	RabbitMQURL        string
	RabbitMQQueueName  string
	DynamoConfig       config.Dynamo
	CloudStorageConfig config.CloudStorage

	YoutubeDLBinPath string
	DemucsBinPath    string
	AubioBinPath     string
	WorkingDirPath   string
}

func NewApp(config Config) App {
	consumerConn := must(amqp091.Dial(config.RabbitMQURL))

	return App{
		worker: newWorker(config, consumerConn),
	}
}

func (a *App) Start() error {
	err := a.worker.Start()
	if err != nil {
		return cerr.Wrap(err).Error("Failed to start worker")
	}

	return nil
}

func (a *App) Stop() {
	a.worker.Stop()
}

func newWorker(config Config, consumerConn *amqp091.Connection) worker.QueueWorker {
	publisher := newPublisher(config)

	extractionStore := extractionstorage.NewDB(newDynamoDB(config.DynamoConfig))
	queueWorker := must(worker.NewQueueWorkerFromConnection(
		consumerConn,
		config.RabbitMQQueueName,
		newJobRouter(config, extractionStore, publisher)))

	return queueWorker
}

func newPublisher(config Config) *rabbitmq.QueuePublisher {
	return must(rabbitmq.NewQueuePublisher(config.RabbitMQURL, config.RabbitMQQueueName))
}

func newDynamoDB(dynamoConfig config.Dynamo) dynamolib.DynamoDBWrapper {
	dbSession := session.Must(session.NewSession())

	var dbConfig *aws.Config

	switch t := dynamoConfig.(type) {
	case config.ProdDynamo:
		dbConfig = aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials(
				t.AccessKeyID,
				t.SecretAccessKey,
				"",
			)).
			WithRegion(t.Region)

	case config.LocalDynamo:
		dbConfig = aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials(
				t.AccessKeyID,
				t.SecretAccessKey,
				"",
			)).
			WithRegion(t.Region).
			WithEndpoint(t.Host)

	default:
		panic("Unexpected dynamo config type")
	}

	return dynamolib.NewDynamoDBWrapper(dynamo.New(dbSession, dbConfig))
}

func newGoogleFileStore(cloudStorageConfig config.CloudStorage) filestore.GoogleFileStore {
	switch t := cloudStorageConfig.(type) {
	case config.ProdCloudStorage:
		return must(filestore.NewGoogleFileStore(
			t.StorageHost,
			option.WithCredentialsJSON([]byte(t.SecretKey)),
		))

	case config.LocalCloudStorage:
		return must(filestore.NewGoogleFileStore(
			t.StorageHost,
			option.WithEndpoint(t.HostEndpoint),
			option.WithAPIKey("fake_api_key"),
		))

	default:
		panic("Unrecognized cloud storage config")
	}
}

func newJobRouter(config Config, extractionStore extractionentity.Store, publisher rabbitmq.Publisher) job_router.JobRouter {
	pathGenerator := storagepath.Generator{
		Host:   config.CloudStorageConfig.GetStorageHost(),
		Bucket: config.CloudStorageConfig.GetBucket(),
	}

	return job_router.NewJobRouter(
		extractionStore,
		publisher,
		newStartJobHandler(extractionStore),
		newExtractJobHandler(config, extractionStore, pathGenerator),
		newSaveResultJobHandler(extractionStore))
}

func newStartJobHandler(extractionStore extractionentity.Store) start.JobHandler {
	return start.NewJobHandler(extractionStore)
}

func newExtractJobHandler(config Config, extractionStore extractionentity.Store, pathGenerator storagepath.Generator) extract.JobHandler {
	return must(extract.NewJobHandler(
		extractionStore,
		newPipeline(config),
		newGoogleFileStore(config.CloudStorageConfig),
		pathGenerator,
		filepath.Join(config.WorkingDirPath, "extract"),
	))
}

func newSaveResultJobHandler(extractionStore extractionentity.Store) save_result.JobHandler {
	return save_result.NewJobHandler(extractionStore)
}

func newPipeline(config Config) pipeline.Pipeline {
	binaryExecutor := executor.BinaryFileExecutor{}

	youtubedler := acquire.NewYoutubeDLer(config.YoutubeDLBinPath, binaryExecutor)
	genericdler := acquire.NewGenericDLer()
	selectdler := acquire.NewSelectDLer(youtubedler, genericdler)

	acquirer := must(acquire.NewAcquirer(selectdler, filepath.Join(config.WorkingDirPath, "download")))

	separator := must(separate.NewDemucsSeparator(
		config.DemucsBinPath,
		binaryExecutor,
		filepath.Join(config.WorkingDirPath, "demucs"),
	))

	tempoEstimator := must(tempo.NewAubioEstimator(
		config.AubioBinPath,
		binaryExecutor,
		filepath.Join(config.WorkingDirPath, "aubio"),
	))

	return pipeline.NewPipeline(acquirer, codec.IO{}, separator, tempoEstimator)
}

var _ cloudstorage.FileStore = filestore.GoogleFileStore{}
