package env

import "os"

type Environment string

const (
	Production  Environment = "production"
	Development Environment = "development"
	Test        Environment = "test"
)

// Get resolves the runtime environment from ENVIRONMENT.
// An unset value is treated as development so that local one-off
// runs don't need any setup.
func Get() Environment {
	environment, isSet := os.LookupEnv("ENVIRONMENT")
	if !isSet {
		return Development
	}

	switch environment {
	case "production":
		return Production
	case "development":
		return Development
	case "test":
		return Test
	default:
		panic("Invalid environment is set")
	}
}
