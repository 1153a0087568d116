package main

import (
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/credit-extract/internal/docinfo"
	"github.com/sells-group/credit-extract/internal/model"
)

// supportedExts are the file extensions batch picks up.
var supportedExts = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// contentType resolves the declared type of an upload: the declared value
// when it names a supported kind, then the file extension, then magic bytes.
func contentType(declared, filename string, data []byte) string {
	if model.ParseMimeKind(declared) != model.MimeOther {
		return declared
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); model.ParseMimeKind(byExt) != model.MimeOther {
		return byExt
	}
	return docinfo.Sniff(data).ContentType()
}

// loadDocument reads path into a DocumentInput.
func loadDocument(path string) (model.DocumentInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.DocumentInput{}, eris.Wrapf(err, "read %s", path)
	}
	name := filepath.Base(path)
	return model.NewDocumentInput(data, contentType("", name, data), name), nil
}

// listDocuments returns the supported files under dir, recursing when
// recursive is set.
func listDocuments(dir string, recursive bool) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if supportedExts[strings.ToLower(filepath.Ext(path))] {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "walk %s", dir)
	}
	return out, nil
}
