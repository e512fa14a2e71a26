package extractionerrors

import (
	"github.com/k0jin/acapella-maker/src/server/internal/errors/api"
)

const (
	ExtractionNotFoundCode  = api.ErrorCode("extraction_not_found")
	BadExtractionDataCode   = api.ErrorCode("bad_extraction_data")
	InvalidInputURLCode     = api.ErrorCode("invalid_input_url")
	ExtractionOverwriteCode = api.ErrorCode("extraction_overwrite")
)
