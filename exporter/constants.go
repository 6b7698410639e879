package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/gpuix/drawcall_exporter/capture"
)

// dumpConstants writes the decoded constant buffers of one shader stage
// as <stage>.json: a flat map of variable name to comma-joined values,
// matrix and struct variables as a list of row strings.
func (e *Exporter) dumpConstants(stage capture.ShaderStage) error {
	blocks, err := e.c.ConstantBlocks(stage)
	if err != nil {
		return errors.Wrapf(err, "Failed to get %v constant blocks", stage)
	}

	out := make(map[string]interface{})
	for _, block := range blocks {
		if block.ArraySize > 1 {
			continue
		}
		for _, v := range block.Variables {
			if len(v.Members) > 0 {
				rows := make([]string, 0, len(v.Members))
				for _, member := range v.Members {
					rows = append(rows, formatConstantRow(member.Values, member.Columns))
				}
				out[v.Name] = rows
			} else {
				out[v.Name] = formatConstantRow(v.Values, v.Columns)
			}
		}
	}
	if len(out) == 0 {
		return nil
	}

	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return errors.Wrapf(err, "Failed to marshal %v constants", stage)
	}

	path := filepath.Join(e.cfg.OutputDir, stage.String()+".json")
	if err := os.WriteFile(path, data, 0666); err != nil {
		return errors.Wrapf(err, "Failed to write %q", path)
	}
	return nil
}

func formatConstantRow(values []float32, columns int) string {
	if columns > len(values) {
		columns = len(values)
	}
	parts := make([]string, 0, columns)
	for c := 0; c < columns; c++ {
		parts = append(parts, fmt.Sprintf("%.5f", values[c]))
	}
	return strings.Join(parts, ", ")
}
