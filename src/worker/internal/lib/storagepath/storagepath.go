package storagepath

import "fmt"

// Generator builds the public object URL for artifacts of one
// extraction.
type Generator struct {
	Host   string
	Bucket string
}

func (g Generator) GeneratePath(extractionID string, leafPath string) string {
	return fmt.Sprintf("%s/%s/%s/%s", g.Host, g.Bucket, extractionID, leafPath)
}
