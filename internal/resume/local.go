package resume

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"code.sajari.com/docconv"
	"github.com/spigell/job-radar/internal/ai"
)

// LocalReader extracts document text on this host without an LLM.
// The instruction is ignored.
type LocalReader struct{}

func (LocalReader) ReadDocument(ctx context.Context, doc ai.Document, instruction string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if doc.MIMEType == "text/plain" {
		return strings.TrimSpace(string(doc.Data)), nil
	}

	res, err := docconv.Convert(bytes.NewReader(doc.Data), doc.MIMEType, false)
	if err != nil {
		return "", fmt.Errorf("convert %s locally: %w", doc.MIMEType, err)
	}

	return strings.TrimSpace(res.Body), nil
}
