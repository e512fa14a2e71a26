package config

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

func FindBin(bin string) string {
	cmd := exec.Command("which", bin)
	output, err := cmd.CombinedOutput()

	stringOutput := string(output)
	if err != nil {
		panic(fmt.Sprintf("Failed to find %s: %s", bin, stringOutput))
	}

	trimmedOutput := strings.TrimSpace(stringOutput)
	if trimmedOutput == "" {
		panic(fmt.Sprintf("No bin found for %s", bin))
	}

	return trimmedOutput
}

// BinFromEnvOrPath prefers an explicitly configured binary path and
// falls back to a PATH lookup when the env var isn't set.
func BinFromEnvOrPath(envKey string, bin string) string {
	if val, isSet := os.LookupEnv(envKey); isSet && val != "" {
		return val
	}

	return FindBin(bin)
}

func DemucsPath() string {
	return FindBin("demucs")
}

func YoutubeDLPath() string {
	return FindBin("yt-dlp")
}

func AubioPath() string {
	return FindBin("aubio")
}
