package gridc

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gridc-io/gridc/bitcode"
)

// Environment switches for the diagnostic dump mode. None of them affect
// build correctness.
const (
	// EnvDumpIR enables writing the source, textual IR, and portable binary
	// of every successful build to the temp directory, named by build
	// identifier.
	EnvDumpIR = "GRIDC_DUMP_IR"

	// EnvKeepTemps retains dump artifacts past Release and rebuilds.
	EnvKeepTemps = "GRIDC_KEEP_TEMPS"

	// EnvTempDir overrides the directory dump artifacts are written to.
	EnvTempDir = "GRIDC_TEMP_DIR"
)

func dumpEnabled() bool {
	return os.Getenv(EnvDumpIR) != ""
}

func keepTemps() bool {
	return os.Getenv(EnvKeepTemps) != ""
}

func tempDir() string {
	if dir := os.Getenv(EnvTempDir); dir != "" {
		return dir
	}
	return os.TempDir()
}

// dumpArtifacts writes the three per-build artifacts for a successful
// build. Dump failures are logged and otherwise ignored.
func (p *Program) dumpArtifacts() {
	if !dumpEnabled() || p.module == nil {
		return
	}
	base := filepath.Join(tempDir(), fmt.Sprintf("gridc_%d", p.uid))

	p.dumpFile(base+".clk", []byte(p.source))
	p.dumpFile(base+".ll", []byte(p.module.String()))
	if data, err := bitcode.Encode(p.module); err == nil {
		p.dumpFile(base+".bin", data)
	} else {
		p.cfg.logger.Error().Err(err).Msg("failed to encode dump binary")
	}
}

func (p *Program) dumpFile(path string, data []byte) {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		p.cfg.logger.Error().Err(err).Str("path", path).Msg("failed to write dump artifact")
		return
	}
	p.tempFiles = append(p.tempFiles, path)
	p.cfg.logger.Info().Str("path", path).Msg("wrote dump artifact")
}

// removeTemps deletes this program's dump artifacts unless the retain
// switch is set.
func (p *Program) removeTemps() {
	if keepTemps() {
		p.tempFiles = nil
		return
	}
	for _, path := range p.tempFiles {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			p.cfg.logger.Error().Err(err).Str("path", path).Msg("failed to remove dump artifact")
		}
	}
	p.tempFiles = nil
}
