package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// VertexImageProvider calls a Vertex-style prediction endpoint for
// illustration and upscaling. One instance handles both models.
type VertexImageProvider struct {
	BaseURL      string
	APIKey       string
	Model        string
	UpscaleModel string
	Client       *http.Client
}

func NewVertexImageProvider(baseURL, apiKey, model, upscaleModel string) *VertexImageProvider {
	if model == "" {
		model = "imagegeneration@006"
	}
	if upscaleModel == "" {
		upscaleModel = "image-upscaling@001"
	}
	return &VertexImageProvider{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		Model:        model,
		UpscaleModel: upscaleModel,
		Client:       &http.Client{Timeout: 90 * time.Second},
	}
}

type vertexPredictReq struct {
	Instances  []map[string]any `json:"instances"`
	Parameters map[string]any   `json:"parameters"`
}

type vertexPredictResp struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
	} `json:"predictions"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *VertexImageProvider) Generate(ctx context.Context, prompt string) ([]byte, error) {
	instance := map[string]any{
		"prompt": fmt.Sprintf("A whimsical and colorful illustration for a children's story about: %s", prompt),
	}
	return p.predict(ctx, p.Model, instance)
}

func (p *VertexImageProvider) Upscale(ctx context.Context, image []byte) ([]byte, error) {
	instance := map[string]any{
		"image": map[string]any{
			"bytesBase64Encoded": base64.StdEncoding.EncodeToString(image),
		},
	}
	return p.predict(ctx, p.UpscaleModel, instance)
}

func (p *VertexImageProvider) predict(ctx context.Context, model string, instance map[string]any) ([]byte, error) {
	if p.Client == nil {
		return nil, errors.New("vertex: http client is nil")
	}

	reqBody := vertexPredictReq{
		Instances:  []map[string]any{instance},
		Parameters: map[string]any{"sampleCount": 1, "outputMimeType": "image/png"},
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/publishers/google/models/%s:predict", p.BaseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vertex: status %d", resp.StatusCode)
	}

	var decoded vertexPredictResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	if decoded.Error != nil {
		return nil, errors.New(decoded.Error.Message)
	}
	if len(decoded.Predictions) == 0 {
		return nil, errors.New("vertex: no predictions returned")
	}
	return base64.StdEncoding.DecodeString(decoded.Predictions[0].BytesBase64Encoded)
}
