// Package persist writes generated pipeline artifacts into the project
// tree and records control plane resources (webhooks) under the user's
// data directory. Artifact writes are idempotent: regenerating identical
// content leaves the tree byte-identical.
package persist

import (
	"io"
	"log/slog"
	"path"
	"regexp"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/Paretofilm/amplify-pipeline-mcp/errors"
	"github.com/Paretofilm/amplify-pipeline-mcp/workflow"
)

// unsafeFilenameChars matches everything not allowed in an artifact
// filename.
var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFilename replaces filesystem-hostile characters with
// underscores.
func SanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

// ArtifactWriter persists workflow artifacts into a project filesystem.
type ArtifactWriter struct {
	fsys   billy.Filesystem
	logger *slog.Logger
}

// NewArtifactWriter creates a writer rooted at the project filesystem.
// A nil logger disables logging.
func NewArtifactWriter(fsys billy.Filesystem, logger *slog.Logger) *ArtifactWriter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ArtifactWriter{fsys: fsys, logger: logger}
}

// WritePlan writes every artifact in the plan, creating parent
// directories as needed. Existing files are overwritten: generated
// artifacts are owned by the generator, not hand-edited.
func (w *ArtifactWriter) WritePlan(plan *workflow.Plan) error {
	for _, artifact := range plan.Artifacts() {
		if err := w.write(artifact); err != nil {
			return err
		}
	}
	return nil
}

func (w *ArtifactWriter) write(artifact workflow.Artifact) error {
	dir := path.Dir(artifact.Path)
	if dir != "." {
		if err := w.fsys.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapWithContext(err, errors.CodePersistFailed,
				"could not create artifact directory", map[string]any{"dir": dir})
		}
	}
	if err := util.WriteFile(w.fsys, artifact.Path, artifact.Content, 0o644); err != nil {
		return errors.WrapWithContext(err, errors.CodePersistFailed,
			"could not write artifact", map[string]any{"path": artifact.Path})
	}
	w.logger.Info("artifact written", "path", artifact.Path, "bytes", len(artifact.Content))
	return nil
}
