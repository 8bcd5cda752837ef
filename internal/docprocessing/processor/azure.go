package processor

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"
)

type recognizeFunc func(ctx context.Context, image io.ReadCloser) (computervision.OcrResult, error)

// AzureEngine runs printed-text OCR against Azure Computer Vision.
type AzureEngine struct {
	recognize recognizeFunc
}

func NewAzureEngine(endpoint, key string) (*AzureEngine, error) {
	if endpoint == "" || key == "" {
		return nil, &ProcessError{Op: "NewAzureEngine", Err: ErrMissingCredentials, Details: "endpoint and key are required"}
	}

	client := computervision.New(endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(key)

	return &AzureEngine{
		recognize: func(ctx context.Context, image io.ReadCloser) (computervision.OcrResult, error) {
			return client.RecognizePrintedTextInStream(ctx, true, image, computervision.OcrLanguages(computervision.En))
		},
	}, nil
}

func (e *AzureEngine) Name() string {
	return "azure"
}

func (e *AzureEngine) Recognize(ctx context.Context, path string) (string, error) {
	const op = "azure.Recognize"

	f, err := os.Open(path)
	if err != nil {
		return "", WrapProcessError(op, err, "open image")
	}
	defer f.Close()

	result, err := e.recognize(ctx, f)
	if err != nil {
		return "", &ProcessError{Op: op, Err: ErrOCRFailed, Details: err.Error()}
	}
	return ocrResultText(result), nil
}

// ocrResultText flattens regions into one line of text per OCR line.
func ocrResultText(result computervision.OcrResult) string {
	if result.Regions == nil {
		return ""
	}

	var b strings.Builder
	for _, region := range *result.Regions {
		if region.Lines == nil {
			continue
		}
		for _, line := range *region.Lines {
			if line.Words == nil {
				continue
			}
			words := make([]string, 0, len(*line.Words))
			for _, word := range *line.Words {
				if word.Text != nil {
					words = append(words, *word.Text)
				}
			}
			b.WriteString(strings.Join(words, " "))
			b.WriteString("\n")
		}
	}
	return b.String()
}
