package hangout

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/webapis/webcom/internal/models"

	"github.com/h2non/filetype"
)

// AttachmentFromFile reads a local file into a message attachment, sniffing
// the MIME type from the content rather than the extension.
func AttachmentFromFile(path string) (models.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("failed to read attachment: %w", err)
	}

	attachmentType := models.AttachmentTypeFile
	if filetype.IsImage(data) {
		attachmentType = models.AttachmentTypeImage
	}

	mimeType := "application/octet-stream"
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		mimeType = kind.MIME.Value
	}

	return models.Attachment{
		Type:     attachmentType,
		Name:     filepath.Base(path),
		MimeType: mimeType,
		Data:     data,
	}, nil
}
