package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gpuix/drawcall_exporter/capture"
	"github.com/gpuix/drawcall_exporter/logger"
)

// saveBoundTextures writes every fragment-stage texture of the current
// pipeline state as PNG files under Textures/, one file per array slice.
// Each resource is saved at most once per export run.
func (e *Exporter) saveBoundTextures(state *capture.PipelineState) error {
	dir := filepath.Join(e.cfg.OutputDir, "Textures")
	if err := os.MkdirAll(dir, 0777); err != nil {
		return errors.Wrapf(err, "Failed to create textures dir %q", dir)
	}

	for _, res := range state.FragmentTextures {
		if res == capture.ResourceNone {
			continue
		}
		if _, saved := e.savedTextures[res]; saved {
			continue
		}

		if err := e.saveTexture(dir, res); err != nil {
			return err
		}
		e.savedTextures[res] = struct{}{}
	}
	return nil
}

func (e *Exporter) saveTexture(dir string, res capture.ResourceId) error {
	desc := findTexture(e.c.Textures(), res)
	if desc == nil {
		return errors.Errorf("Texture resource %d is not present in the capture", res)
	}

	slices := desc.ArraySize
	if slices < 1 {
		slices = 1
	}

	for slice := 0; slice < slices; slice++ {
		name := desc.Name + ".png"
		if desc.ArraySize > 1 {
			name = fmt.Sprintf("%s_%d.png", desc.Name, slice)
		}
		path := filepath.Join(dir, name)

		data, err := e.c.TexturePNG(res, slice)
		if err != nil {
			return errors.Wrapf(err, "Failed to render texture %q slice %d", desc.Name, slice)
		}
		if err := os.WriteFile(path, data, 0666); err != nil {
			return errors.Wrapf(err, "Failed to write %q", path)
		}

		logger.Log.Info("texture saved", zap.String("path", path))
	}
	return nil
}

func findTexture(textures []capture.TextureDescription, res capture.ResourceId) *capture.TextureDescription {
	for i := range textures {
		if textures[i].Resource == res {
			return &textures[i]
		}
	}
	return nil
}
