package separate

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/k0jin/acapella-maker/src/shared/audio"
	"github.com/k0jin/acapella-maker/src/shared/audio/codec"
	"github.com/k0jin/acapella-maker/src/shared/lib/executor"
	"github.com/k0jin/acapella-maker/src/shared/lib/working_dir"
)

const vocalsFileName = "vocals.wav"

var _ Separator = DemucsSeparator{}

// DemucsSeparator runs demucs in two-stem mode against a temp copy of
// the waveform and reads the vocal stem back. Demucs handles its own
// windowed chunking and merge, so the stem comes back as one full
// track.
type DemucsSeparator struct {
	demucsBinPath   string
	commandExecutor executor.Executor
	workingDir      working_dir.WorkingDir
}

func NewDemucsSeparator(demucsBinPath string, commandExecutor executor.Executor, workingDirStr string) (DemucsSeparator, error) {
	workingDir, err := working_dir.NewWorkingDir(workingDirStr)
	if err != nil {
		return DemucsSeparator{}, errors.Wrap(err, "Failed to create working dir")
	}

	return DemucsSeparator{
		demucsBinPath:   demucsBinPath,
		commandExecutor: commandExecutor,
		workingDir:      workingDir,
	}, nil
}

func (d DemucsSeparator) Separate(ctx context.Context, waveform audio.Waveform) (audio.Waveform, error) {
	tempDir, err := os.MkdirTemp(d.workingDir.TempDir(), "separate-*")
	if err != nil {
		return audio.Waveform{}, errors.Wrap(err, "Failed to create temp dir for separation")
	}

	defer os.RemoveAll(tempDir)

	mixturePath := filepath.Join(tempDir, "mixture.wav")
	if err := codec.Save(waveform, mixturePath); err != nil {
		return audio.Waveform{}, errors.Wrap(err, "Failed to write the mixture file")
	}

	stemsDir := filepath.Join(tempDir, "stems")

	// separation is a lengthy process, if we want to halt now is the time
	if ctx.Err() != nil {
		return audio.Waveform{}, errors.Wrap(ctx.Err(), "Context cancelled before separation could happen")
	}

	if err := d.runDemucs(mixturePath, stemsDir); err != nil {
		return audio.Waveform{}, errors.Wrap(err, "Failed to execute demucs")
	}

	vocalsPath, err := findVocalsFile(stemsDir)
	if err != nil {
		return audio.Waveform{}, errors.Wrap(err, "Failed to locate the vocal stem output")
	}

	vocals, err := codec.Load(vocalsPath)
	if err != nil {
		return audio.Waveform{}, errors.Wrap(err, "Failed to load the vocal stem")
	}

	if vocals.SampleRate != waveform.SampleRate {
		vocals, err = audio.Resample(vocals, waveform.SampleRate)
		if err != nil {
			return audio.Waveform{}, errors.Wrap(err, "Failed to match the vocal stem to the source sample rate")
		}
	}

	return vocals, nil
}

func (d DemucsSeparator) runDemucs(sourcePath string, destPath string) error {
	logger := log.WithFields(log.Fields{
		"source_path": sourcePath,
		"dest_path":   destPath,
	})

	logger.Info("Running demucs command")

	args := []string{"--two-stems", "vocals", "-o", destPath, "-d", "cpu", "--filename", "{stem}.{ext}", sourcePath}

	cmd := d.commandExecutor.Command(d.demucsBinPath, args...)
	cmd.SetDir(d.workingDir.Root())

	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "Error occurred while running demucs: %s", string(output))
	}

	logger.Info("Finished demucs command")

	return nil
}

// findVocalsFile walks the demucs output tree for the vocal stem.
// Demucs nests output under <dest>/<model>/<track>/, so the exact
// path depends on the model name.
func findVocalsFile(dir string) (string, error) {
	vocalsPath := ""

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !entry.IsDir() && strings.EqualFold(entry.Name(), vocalsFileName) {
			vocalsPath = path
			return fs.SkipAll
		}

		return nil
	})

	if err != nil {
		return "", errors.Wrap(err, "Failed to walk the demucs output dir")
	}

	if vocalsPath == "" {
		return "", errors.Errorf("No %s found in the demucs output", vocalsFileName)
	}

	return vocalsPath, nil
}
