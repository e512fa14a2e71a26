package extractionstorage

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/guregu/dynamo"
	extractionentity "github.com/k0jin/acapella-maker/src/shared/extraction/entity"
	dynamolib "github.com/k0jin/acapella-maker/src/shared/lib/dynamo"
	"github.com/k0jin/acapella-maker/src/shared/lib/errors/mark"
)

const (
	ExtractionsTable = "Extractions"
)

var _ extractionentity.Store = DB{}

type DB struct {
	dynamoDB dynamolib.DynamoDBWrapper
}

func NewDB(dynamoDB dynamolib.DynamoDBWrapper) DB {
	return DB{
		dynamoDB: dynamoDB,
	}
}

func (d DB) GetExtraction(ctx context.Context, id string) (extractionentity.Extraction, error) {
	value := dbExtraction{}
	err := d.dynamoDB.Table(ExtractionsTable).
		Get(idKey, id).
		OneWithContext(ctx, &value)

	if err != nil {
		switch {
		case markers.Is(err, UnmarshalMark):
			return extractionentity.Extraction{}, errors.Wrap(err, "Failed to fetch extraction")
		case errors.Is(err, dynamo.ErrNotFound):
			return extractionentity.Extraction{}, mark.Wrap(err, ExtractionNotFound, "Extraction is not found")
		default:
			return extractionentity.Extraction{}, mark.Wrap(err, DefaultErrorMark, "Failed to fetch extraction")
		}
	}

	extraction := extractionentity.Extraction{}
	err = extraction.FromMap(value)
	if err != nil {
		return extractionentity.Extraction{},
			mark.Wrap(err, UnmarshalMark, "Failed to transform DB map back to entity extraction")
	}

	return extraction, nil
}

func (d DB) SetExtraction(ctx context.Context, extraction extractionentity.Extraction) error {
	if extraction.GetID() == "" {
		return mark.Message(IDEmptyMark, "Extraction ID is not defined")
	}

	dbObject, err := extraction.ToMap()
	if err != nil {
		return mark.Wrap(err,
			MarshalMark,
			"Failed to transform entity extraction to a generic map object")
	}

	err = d.dynamoDB.Table(ExtractionsTable).Put(dbObject).RunWithContext(ctx)
	if err != nil {
		return mark.Wrap(err,
			DefaultErrorMark,
			"Failed to put the extraction in the DB")
	}

	return nil
}

func (d DB) UpdateExtraction(ctx context.Context, id string, updater extractionentity.Updater) error {
	if id == "" {
		return mark.Message(IDEmptyMark, "No extraction ID was provided")
	}

	extraction, err := d.GetExtraction(ctx, id)
	if err != nil {
		return mark.Wrap(err, ExtractionNotFound, "Can't find the extraction")
	}

	updatedExtraction, err := updater(extraction)
	if err != nil {
		return mark.Wrap(err, DefaultErrorMark, "The updater failed to make changes to the extraction")
	}

	if updatedExtraction.GetID() != id {
		return mark.Message(DefaultErrorMark, "The updater changed the extraction ID")
	}

	if err := d.SetExtraction(ctx, updatedExtraction); err != nil {
		return errors.Wrap(err, "Failed to set the updated extraction")
	}

	return nil
}
