package hosting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"strings"
)

// multipartBody is the encoded upload payload: a metadata JSON part followed
// by the binary video part under one boundary. Close releases everything the
// body still holds open. getBody is set only for fully buffered payloads; a
// streamed body is one-shot and must never be resent.
type multipartBody struct {
	reader      io.ReadCloser
	contentType string
	getBody     func() (io.ReadCloser, error)
}

func (b *multipartBody) Close() error {
	return b.reader.Close()
}

// buildBody encodes one asset plus its metadata. In-memory sources are
// buffered directly; file-backed sources are streamed from disk through a
// pipe, with the metadata JSON staged in a temporary file that is unlinked
// before buildBody returns. The open descriptor keeps the staged metadata
// readable for the transfer, so no temp file survives any exit path, whether
// the build, the upload, or neither succeeds.
func buildBody(src AssetSource, meta Metadata) (*multipartBody, error) {
	if src == nil {
		return nil, errValidation("an asset is required")
	}
	if strings.TrimSpace(meta.Title) == "" {
		return nil, errValidation("a title is required")
	}
	switch meta.Privacy {
	case PrivacyPrivate, PrivacyUnlisted, PrivacyPublic:
	default:
		return nil, errValidation("privacy status must be private, unlisted, or public")
	}

	metadataJSON, err := json.Marshal(wireMetadata(meta))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if fs, ok := src.(*FileSource); ok {
		return buildStreamedBody(fs, metadataJSON)
	}
	return buildBufferedBody(src, metadataJSON)
}

func buildBufferedBody(src AssetSource, metadataJSON []byte) (*multipartBody, error) {
	asset, err := src.Open()
	if err != nil {
		return nil, &ClassifiedError{Kind: KindValidation, Message: "the asset could not be read", cause: err}
	}
	defer func() { _ = asset.Close() }()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writeParts(writer, bytes.NewReader(metadataJSON), asset, src.Name(), src.ContentType()); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	data := body.Bytes()
	return &multipartBody{
		reader:      io.NopCloser(bytes.NewReader(data)),
		contentType: writer.FormDataContentType(),
		getBody: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}, nil
}

func buildStreamedBody(src *FileSource, metadataJSON []byte) (*multipartBody, error) {
	tmp, err := os.CreateTemp("", "teamreel-metadata-*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata file: %w", err)
	}

	if _, err := tmp.Write(metadataJSON); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to rewind metadata file: %w", err)
	}

	// Unlink immediately. The descriptor keeps the content alive for the
	// transfer while nothing remains on disk after this function returns.
	if err := os.Remove(tmp.Name()); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("failed to remove metadata file: %w", err)
	}

	asset, err := src.Open()
	if err != nil {
		_ = tmp.Close()
		return nil, &ClassifiedError{Kind: KindValidation, Message: "the asset could not be read", cause: err}
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		err := writeParts(writer, tmp, asset, src.Name(), src.ContentType())
		if err == nil {
			err = writer.Close()
		}
		_ = tmp.Close()
		_ = asset.Close()
		_ = pw.CloseWithError(err)
	}()

	return &multipartBody{
		reader:      pr,
		contentType: writer.FormDataContentType(),
	}, nil
}

func writeParts(writer *multipart.Writer, metadata, asset io.Reader, name, contentType string) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="metadata"; filename="metadata.json"`)
	header.Set("Content-Type", "application/json; charset=UTF-8")

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create metadata part: %w", err)
	}
	if _, err := io.Copy(part, metadata); err != nil {
		return fmt.Errorf("failed to write metadata part: %w", err)
	}

	header = textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="video"; filename=%q`, name))
	header.Set("Content-Type", contentType)

	part, err = writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create video part: %w", err)
	}
	if _, err := io.Copy(part, asset); err != nil {
		return fmt.Errorf("failed to write video part: %w", err)
	}

	return nil
}
