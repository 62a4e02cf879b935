package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// FaceVerifyService calls an external face-recognition capability, when one
// is configured. Matching itself is not implemented here; the caller treats
// any failure as non-fatal.
type FaceVerifyService struct {
	client   *http.Client
	endpoint string
}

func NewFaceVerifyService(endpoint string) *FaceVerifyService {
	return &FaceVerifyService{
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: endpoint,
	}
}

func (s *FaceVerifyService) Enabled() bool {
	return s.endpoint != ""
}

// Verify submits a capture photo for identity verification.
func (s *FaceVerifyService) Verify(ctx context.Context, userID string, photo []byte) error {
	payload := map[string]interface{}{
		"user_id": userID,
		"photo":   base64.StdEncoding.EncodeToString(photo),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("face verification returned status %d", resp.StatusCode)
	}
	return nil
}
