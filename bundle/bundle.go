// Package bundle packages build output for manual-mode deployments: zip
// the output directory, describe its contents, and hand the archive to
// Amplify either through a pre-signed upload URL or an S3 bucket.
package bundle

import (
	"archive/zip"
	"bytes"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/Paretofilm/amplify-pipeline-mcp/errors"
)

// Entry describes one file in a bundle.
type Entry struct {
	// Path is the file path relative to the bundle root.
	Path string

	// Size is the uncompressed size in bytes.
	Size int64

	// ContentType is the detected MIME type.
	ContentType string
}

// Bundle is a packaged build output ready for upload.
type Bundle struct {
	// Archive is the zip file content.
	Archive []byte

	// Manifest lists the bundled files in path order.
	Manifest []Entry
}

// Package zips the given output directory within fsys. Entries are
// written in sorted path order so identical trees produce identical
// manifests.
func Package(fsys billy.Filesystem, outputDir string) (*Bundle, error) {
	var files []string
	err := util.Walk(fsys, outputDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodePersistFailed,
			"could not walk build output", map[string]any{"dir": outputDir})
	}
	if len(files) == 0 {
		return nil, errors.Newf(errors.CodeInvalidInput,
			"build output directory %q is empty", outputDir)
	}
	sort.Strings(files)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	manifest := make([]Entry, 0, len(files))

	prefix := strings.TrimSuffix(outputDir, "/") + "/"
	for _, file := range files {
		data, err := util.ReadFile(fsys, file)
		if err != nil {
			return nil, errors.WrapWithContext(err, errors.CodePersistFailed,
				"could not read build output file", map[string]any{"file": file})
		}

		rel := strings.TrimPrefix(file, prefix)
		w, err := zw.Create(rel)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodePersistFailed, "could not create zip entry")
		}
		if _, err := w.Write(data); err != nil {
			return nil, errors.Wrap(err, errors.CodePersistFailed, "could not write zip entry")
		}

		manifest = append(manifest, Entry{
			Path:        rel,
			Size:        int64(len(data)),
			ContentType: detectContentType(rel, data),
		})
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, errors.CodePersistFailed, "could not finalize archive")
	}

	return &Bundle{Archive: buf.Bytes(), Manifest: manifest}, nil
}

// detectContentType sniffs content and falls back to the extension for
// types the sniffer reports as plain text.
func detectContentType(name string, data []byte) string {
	detected := mimetype.Detect(data)
	if ext := path.Ext(name); ext != "" {
		// Sniffing cannot tell .js from .css from plain text, the
		// extension can.
		switch ext {
		case ".js", ".mjs":
			return "text/javascript"
		case ".css":
			return "text/css"
		case ".json":
			return "application/json"
		case ".svg":
			return "image/svg+xml"
		}
	}
	return detected.String()
}
