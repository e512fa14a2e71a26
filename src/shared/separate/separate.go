package separate

import (
	"context"

	"github.com/k0jin/acapella-maker/src/shared/audio"
)

// Separator isolates the vocal stem from a mixed-source waveform. The
// returned waveform is one coherent vocal track at the input's sample
// rate - any chunking the underlying model does stays internal.
type Separator interface {
	Separate(ctx context.Context, waveform audio.Waveform) (audio.Waveform, error)
}
