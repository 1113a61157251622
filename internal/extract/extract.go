package extract

import (
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"go.uber.org/zap"
)

// Extractor converts uploaded resume documents into plain text. It never
// fails the caller: an unreadable or corrupt document yields an empty
// string, which blocks the match score downstream instead of crashing the
// session.
type Extractor struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Text extracts the document's text in page order. Plain-text files are
// read directly; everything else goes through the converter.
func (e *Extractor) Text(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".txt" || ext == ".md" {
		data, err := os.ReadFile(path)
		if err != nil {
			e.logger.Warn("reading resume file failed", zap.String("path", path), zap.Error(err))
			return ""
		}
		return strings.TrimSpace(string(data))
	}

	res, err := docconv.ConvertPath(path)
	if err != nil {
		e.logger.Warn("resume conversion failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	if res == nil {
		return ""
	}

	return strings.TrimSpace(res.Body)
}
