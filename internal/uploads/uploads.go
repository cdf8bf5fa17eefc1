// Package uploads pushes request images to the blob host. When the host is
// not configured it falls back to a local-only preview reference so the save
// flow keeps working; callers must tolerate that the fallback URL does not
// persist anywhere.
package uploads

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/google/uuid"
)

// Uploader sends files to a Cloudinary-style unsigned upload endpoint.
type Uploader struct {
	CloudName    string
	UploadPreset string
	HTTP         *http.Client
}

func NewFromEnv() *Uploader {
	return &Uploader{
		CloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		UploadPreset: os.Getenv("CLOUDINARY_UPLOAD_PRESET"),
		HTTP:         http.DefaultClient,
	}
}

// Configured reports whether uploads will actually persist.
func (u *Uploader) Configured() bool {
	return u.CloudName != "" && u.UploadPreset != ""
}

// UploadBlob stores the file and returns its URL. Unconfigured hosts yield a
// preview:// reference instead of an error.
func (u *Uploader) UploadBlob(filename string, content io.Reader) (string, error) {
	if !u.Configured() {
		return "preview://" + uuid.New().String() + "/" + filename, nil
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", err
	}
	if err := form.WriteField("upload_preset", u.UploadPreset); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	url := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/upload", u.CloudName)
	req, err := http.NewRequest(http.MethodPost, url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := u.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("uploads: host rejected file: %s", msg)
	}

	var out struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.SecureURL, nil
}
