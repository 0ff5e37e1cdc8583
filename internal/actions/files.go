package actions

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/coursehub-dev/coursehub/internal/apiclient"
	"github.com/coursehub-dev/coursehub/internal/domain"
	"github.com/coursehub-dev/coursehub/internal/result"
)

// MaxUploadSize caps the size of a single upload
const MaxUploadSize = 50 << 20

// UploadFile uploads a file to the storage service. The content is buffered
// so the request can be replayed after a token refresh.
func (a *Actions) UploadFile(ctx context.Context, name string, content io.Reader, folder string) result.Result[domain.FileInfo] {
	var info domain.FileInfo
	if strings.TrimSpace(name) == "" {
		return finish(a, "upload file", info, result.Errorf("file name is required"), "")
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxUploadSize+1))
	if err != nil {
		return finish(a, "upload file", info, fmt.Errorf("failed to read %s: %w", name, err), "")
	}
	if len(data) > MaxUploadSize {
		return finish(a, "upload file", info, result.Errorf("%s is larger than %d MB", name, MaxUploadSize>>20), "")
	}

	fields := map[string]string{}
	if folder != "" {
		fields["folder"] = folder
	}

	err = a.do(ctx, apiclient.ServiceStorage, func(c *apiclient.Client) error {
		return c.Upload(ctx, "/files", apiclient.UploadFile{
			FileName: name,
			Content:  bytes.NewReader(data),
			Fields:   fields,
		}, &info)
	})
	return finish(a, "upload file", info, err, "File uploaded")
}
