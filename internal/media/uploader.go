// Package media decodes submitted image payloads and stores them on the
// image host, returning public HTTPS references for the storefront listing.
package media

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"listing-backend/internal/model"
)

// uploadTransformation is applied host-side at upload time so every stored
// asset is re-encoded at automatic quality.
const uploadTransformation = "q_auto:good"

// maxResponseSize limits the upload response body read.
const maxResponseSize = 1 * 1024 * 1024

// Config holds image host credentials.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	// UploadURL overrides the derived endpoint; used by tests.
	UploadURL string
	Timeout   time.Duration
}

// Validate fills derived fields and checks required credentials.
func (c *Config) Validate() error {
	if c.CloudName == "" || c.APIKey == "" || c.APISecret == "" {
		return fmt.Errorf("media: cloud name, api key and api secret are required")
	}
	if c.UploadURL == "" {
		c.UploadURL = fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", c.CloudName)
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	return nil
}

// DecodeError reports a malformed base64 image payload.
type DecodeError struct {
	Filename string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("media: decoding %s: %v", e.Filename, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// UploadError reports a non-success response from the image host.
type UploadError struct {
	Filename string
	Status   int
	Body     string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("media: uploading %s: host returned %d: %s", e.Filename, e.Status, e.Body)
}

// Uploader stores decoded images on the hosting service.
type Uploader struct {
	cfg        *Config
	httpClient *http.Client
	log        *zap.Logger
}

// NewUploader creates an uploader with the given configuration.
func NewUploader(cfg *Config, log *zap.Logger) (*Uploader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Uploader{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}, nil
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// Upload decodes one image payload and stores it on the host. Returns the
// hosted HTTPS URL. The public ID is derived from the filename without its
// extension, matching what the vendor sent. No retry; the caller decides
// whether to skip the image or abort.
func (u *Uploader) Upload(ctx context.Context, img model.SubmissionImage) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(img.Base64)
	if err != nil {
		return "", &DecodeError{Filename: img.Filename, Err: err}
	}

	publicID := strings.TrimSuffix(img.Filename, filepath.Ext(img.Filename))
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	mimetype := img.Mimetype
	if mimetype == "" {
		mimetype = "image/jpeg"
	}

	form := url.Values{}
	form.Set("file", fmt.Sprintf("data:%s;base64,%s", mimetype, base64.StdEncoding.EncodeToString(raw)))
	form.Set("api_key", u.cfg.APIKey)
	form.Set("public_id", publicID)
	form.Set("timestamp", timestamp)
	form.Set("transformation", uploadTransformation)
	form.Set("signature", u.sign(publicID, timestamp))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.cfg.UploadURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("media: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("media: uploading %s: %w", img.Filename, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("media: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &UploadError{Filename: img.Filename, Status: resp.StatusCode, Body: string(body)}
	}

	var parsed uploadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("media: parsing response: %w", err)
	}
	if parsed.SecureURL == "" {
		return "", &UploadError{Filename: img.Filename, Status: resp.StatusCode, Body: string(body)}
	}

	u.log.Debug("image uploaded",
		zap.String("filename", img.Filename),
		zap.String("public_id", parsed.PublicID),
	)
	return parsed.SecureURL, nil
}

// sign produces the host's request signature: SHA-1 hex over the sorted
// signed params concatenated with the API secret.
func (u *Uploader) sign(publicID, timestamp string) string {
	toSign := fmt.Sprintf("public_id=%s&timestamp=%s&transformation=%s%s",
		publicID, timestamp, uploadTransformation, u.cfg.APISecret)
	sum := sha1.Sum([]byte(toSign))
	return hex.EncodeToString(sum[:])
}
