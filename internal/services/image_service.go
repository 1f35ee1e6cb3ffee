package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/dream-journal-backend/internal/config"
	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/oklog/ulid/v2"
)

var ErrImagePromptRequired = errors.New("a title or a description is required to generate an image")

const (
	dreamImageDir  = "dreams"
	thumbnailSize  = 512
	webpQuality    = 85
	mediaURLPrefix = "/media"
)

type imageRequest struct {
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Image struct {
		Base64Data string `json:"base64Data"`
		MimeType   string `json:"mimeType"`
	} `json:"image"`
}

// ImageService generates dream illustrations and stores them as WebP files
// under the media directory, each with a square-bounded thumbnail.
type ImageService struct {
	apiURL   string
	apiKey   string
	size     string
	mediaDir string
	client   *http.Client
}

func NewImageService(cfg *config.Config) *ImageService {
	timeout := cfg.AITimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	size := cfg.ImageSize
	if size == "" {
		size = "1024x1024"
	}
	return &ImageService{
		apiURL:   cfg.ImageAPIURL,
		apiKey:   cfg.ImageAPIKey,
		size:     size,
		mediaDir: cfg.MediaDir,
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *ImageService) Available() bool {
	return s.apiURL != ""
}

func DreamImagePrompt(title, content string) string {
	return fmt.Sprintf("Dreamlike surreal artistic interpretation of: %s %s. Style: ethereal, mystical, fantasy art, soft colors, dreamy atmosphere", title, content)
}

// Illustrate generates an image for the dream and returns its public path,
// e.g. /media/dreams/<ulid>.webp.
func (s *ImageService) Illustrate(ctx context.Context, title, content string) (string, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" && content == "" {
		return "", ErrImagePromptRequired
	}
	if !s.Available() {
		return "", ErrAIUnavailable
	}

	raw, err := s.generate(ctx, DreamImagePrompt(title, content))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAIUnavailable, err)
	}
	return s.store(raw)
}

func (s *ImageService) generate(ctx context.Context, prompt string) ([]byte, error) {
	payload, err := json.Marshal(imageRequest{Prompt: prompt, Size: s.size})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("image API error: status %d", resp.StatusCode)
	}

	var parsed imageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	if parsed.Image.Base64Data == "" {
		return nil, errors.New("image API returned no image data")
	}

	decoded, err := base64.StdEncoding.DecodeString(parsed.Image.Base64Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return decoded, nil
}

// store writes <id>.webp and thumbs/<id>.webp and returns the public path
// of the full-size file.
func (s *ImageService) store(raw []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	dir := filepath.Join(s.mediaDir, dreamImageDir)
	thumbsDir := filepath.Join(dir, "thumbs")
	if err := os.MkdirAll(thumbsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	filename := ulid.Make().String() + ".webp"
	fullPath := filepath.Join(dir, filename)
	if err := webp.Save(fullPath, img, &webp.Options{Quality: webpQuality}); err != nil {
		return "", fmt.Errorf("failed to save WebP image: %w", err)
	}

	thumb := imaging.Fit(img, thumbnailSize, thumbnailSize, imaging.Lanczos)
	if err := webp.Save(filepath.Join(thumbsDir, filename), thumb, &webp.Options{Quality: webpQuality}); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to save WebP thumbnail: %w", err)
	}

	return path.Join(mediaURLPrefix, dreamImageDir, filename), nil
}
