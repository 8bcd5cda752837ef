package processor

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o600))
	return path
}

func TestVisionEngine_Recognize(t *testing.T) {
	var got *visionpb.BatchAnnotateImagesRequest
	engine := &VisionEngine{
		annotate: func(_ context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
			got = req
			return &visionpb.BatchAnnotateImagesResponse{
				Responses: []*visionpb.AnnotateImageResponse{
					{FullTextAnnotation: &visionpb.TextAnnotation{Text: "MH12FZ9334\n2890 KG"}},
				},
			}, nil
		},
	}

	text, err := engine.Recognize(context.Background(), tempImage(t))
	require.NoError(t, err)
	assert.Equal(t, "MH12FZ9334\n2890 KG", text)

	require.Len(t, got.GetRequests(), 1)
	assert.Equal(t, []byte("png-bytes"), got.GetRequests()[0].GetImage().GetContent())
	assert.Equal(t, visionpb.Feature_TEXT_DETECTION, got.GetRequests()[0].GetFeatures()[0].GetType())
	assert.NoError(t, engine.Close())
}

func TestVisionEngine_FallsBackToFirstAnnotation(t *testing.T) {
	engine := &VisionEngine{
		annotate: func(context.Context, *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
			return &visionpb.BatchAnnotateImagesResponse{
				Responses: []*visionpb.AnnotateImageResponse{
					{TextAnnotations: []*visionpb.EntityAnnotation{{Description: "whole text"}, {Description: "whole"}}},
				},
			}, nil
		},
	}

	text, err := engine.Recognize(context.Background(), tempImage(t))
	require.NoError(t, err)
	assert.Equal(t, "whole text", text)
}

func TestVisionEngine_Errors(t *testing.T) {
	tests := []struct {
		name string
		resp *visionpb.BatchAnnotateImagesResponse
		err  error
	}{
		{"transport error", nil, errors.New("deadline exceeded")},
		{"empty response", &visionpb.BatchAnnotateImagesResponse{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &VisionEngine{
				annotate: func(context.Context, *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
					return tt.resp, tt.err
				},
			}
			_, err := engine.Recognize(context.Background(), tempImage(t))
			assert.ErrorIs(t, err, ErrOCRFailed)
		})
	}
}

func strPtr(s string) *string { return &s }

func TestAzureEngine_Recognize(t *testing.T) {
	var body []byte
	engine := &AzureEngine{
		recognize: func(_ context.Context, image io.ReadCloser) (computervision.OcrResult, error) {
			body, _ = io.ReadAll(image)
			words1 := []computervision.OcrWord{{Text: strPtr("Vehicle")}, {Text: strPtr("MH12FZ9334")}}
			words2 := []computervision.OcrWord{{Text: strPtr("15,920")}, {Text: nil}, {Text: strPtr("KG")}}
			lines := []computervision.OcrLine{{Words: &words1}, {Words: &words2}, {}}
			regions := []computervision.OcrRegion{{Lines: &lines}, {}}
			return computervision.OcrResult{Regions: &regions}, nil
		},
	}

	text, err := engine.Recognize(context.Background(), tempImage(t))
	require.NoError(t, err)
	assert.Equal(t, "Vehicle MH12FZ9334\n15,920 KG\n", text)
	assert.Equal(t, []byte("png-bytes"), body)
}

func TestAzureEngine_Failure(t *testing.T) {
	engine := &AzureEngine{
		recognize: func(context.Context, io.ReadCloser) (computervision.OcrResult, error) {
			return computervision.OcrResult{}, errors.New("401 unauthorized")
		},
	}

	_, err := engine.Recognize(context.Background(), tempImage(t))
	assert.ErrorIs(t, err, ErrOCRFailed)
}

func TestNewAzureEngine_RequiresCredentials(t *testing.T) {
	_, err := NewAzureEngine("", "")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestOCRResultText_NoRegions(t *testing.T) {
	assert.Empty(t, ocrResultText(computervision.OcrResult{}))
}
