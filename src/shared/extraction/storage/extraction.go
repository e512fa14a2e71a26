package extractionstorage

import (
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/guregu/dynamo"
	dynamolib "github.com/k0jin/acapella-maker/src/shared/lib/dynamo"
	"github.com/k0jin/acapella-maker/src/shared/lib/errors/mark"
)

const (
	idKey = "id"
)

var _ dynamo.ItemUnmarshaler = &dbExtraction{}

type dbExtraction map[string]any

func (d *dbExtraction) UnmarshalDynamoItem(dynamoItem map[string]*dynamodb.AttributeValue) error {
	if err := dynamolib.ValidateStringField(dynamoItem, idKey); err != nil {
		return mark.Wrap(err, UnmarshalMark, "Failed to validate id field")
	}

	plainMap := map[string]any{}
	err := dynamo.UnmarshalItem(dynamoItem, &plainMap)
	if err != nil {
		return mark.Wrap(err, UnmarshalMark, "Failed to unmarshal dynamo item")
	}

	*d = plainMap

	return nil
}
