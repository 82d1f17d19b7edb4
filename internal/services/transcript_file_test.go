package services

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aihub/incident-backend-go/internal/config"
	apperrors "github.com/aihub/incident-backend-go/internal/errors"
)

func uploadCfg() config.FileUploadConfig {
	return config.FileUploadConfig{
		MaxSize:      1024,
		AllowedTypes: []string{".txt", ".md"},
	}
}

// multipartFile 构造一个带指定文件名、Content-Type和内容的上传请求并解析出文件
func multipartFile(t *testing.T, filename, contentType string, content []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcript", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	file, fh, err := req.FormFile("file")
	require.NoError(t, err)
	return file, fh
}

func TestProcessUploadedFileHappyPath(t *testing.T) {
	file, header := multipartFile(t, "incident.txt", "text/plain", []byte("  the transcript  \n"))
	defer file.Close()

	text, err := ProcessUploadedFile(file, header, uploadCfg())
	require.NoError(t, err)
	assert.Equal(t, "the transcript", text)
}

func TestProcessUploadedFileRejectsExtension(t *testing.T) {
	file, header := multipartFile(t, "incident.pdf", "text/plain", []byte("x"))
	defer file.Close()

	_, err := ProcessUploadedFile(file, header, uploadCfg())
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeInvalidFile, appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPCode)
}

func TestProcessUploadedFileRejectsContentType(t *testing.T) {
	file, header := multipartFile(t, "incident.txt", "application/pdf", []byte("x"))
	defer file.Close()

	_, err := ProcessUploadedFile(file, header, uploadCfg())
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeInvalidFile, appErr.Code)
}

func TestProcessUploadedFileRejectsOversize(t *testing.T) {
	file, header := multipartFile(t, "incident.txt", "text/plain", bytes.Repeat([]byte("a"), 2048))
	defer file.Close()

	_, err := ProcessUploadedFile(file, header, uploadCfg())
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeFileTooLarge, appErr.Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, appErr.HTTPCode)
}

func TestProcessUploadedFileRejectsInvalidUTF8(t *testing.T) {
	file, header := multipartFile(t, "incident.md", "text/markdown", []byte{0xff, 0xfe, 0x00})
	defer file.Close()

	_, err := ProcessUploadedFile(file, header, uploadCfg())
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeInvalidFile, appErr.Code)
}
