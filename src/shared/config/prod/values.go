package prod

// DynamoDB
const (
	DynamoDBRegion = "us-east-1"
)

// Google Cloud Storage
const (
	GOOGLE_STORAGE_HOST = "https://storage.googleapis.com"
)
