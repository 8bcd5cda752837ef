package processor

import (
	"context"
	"fmt"
	"os"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

type annotateFunc func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)

// VisionEngine runs TEXT_DETECTION against Google Cloud Vision.
type VisionEngine struct {
	annotate annotateFunc
	close    func() error
}

// NewVisionEngine builds a client from inline credentials JSON, a credentials
// file, or application default credentials, in that order.
func NewVisionEngine(ctx context.Context, credentialsFile, credentialsJSON string) (*VisionEngine, error) {
	const op = "NewVisionEngine"

	var opts []option.ClientOption
	switch {
	case credentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	case credentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		if len(opts) == 0 {
			return nil, &ProcessError{Op: op, Err: ErrMissingCredentials, Details: err.Error()}
		}
		return nil, WrapProcessError(op, err, "create client")
	}

	return &VisionEngine{
		annotate: func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
			return client.BatchAnnotateImages(ctx, req)
		},
		close: client.Close,
	}, nil
}

func (e *VisionEngine) Name() string {
	return "vision"
}

func (e *VisionEngine) Recognize(ctx context.Context, path string) (string, error) {
	const op = "vision.Recognize"

	content, err := os.ReadFile(path)
	if err != nil {
		return "", WrapProcessError(op, err, "read image")
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image:    &visionpb.Image{Content: content},
				Features: []*visionpb.Feature{{Type: visionpb.Feature_TEXT_DETECTION}},
			},
		},
	}

	resp, err := e.annotate(ctx, req)
	if err != nil {
		return "", &ProcessError{Op: op, Err: ErrOCRFailed, Details: err.Error()}
	}
	if len(resp.GetResponses()) == 0 {
		return "", &ProcessError{Op: op, Err: ErrOCRFailed, Details: "empty response"}
	}

	res := resp.GetResponses()[0]
	if res.GetError() != nil {
		return "", &ProcessError{Op: op, Err: ErrOCRFailed, Details: fmt.Sprintf("api error: %s", res.GetError().GetMessage())}
	}

	if full := res.GetFullTextAnnotation(); full != nil {
		return full.GetText(), nil
	}
	// first annotation holds the whole block of detected text
	if anns := res.GetTextAnnotations(); len(anns) > 0 {
		return anns[0].GetDescription(), nil
	}
	return "", nil
}

// Close releases the underlying gRPC connection.
func (e *VisionEngine) Close() error {
	if e.close == nil {
		return nil
	}
	return e.close()
}
