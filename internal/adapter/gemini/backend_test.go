package gemini

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"

	"github.com/Strob0t/AgentForge/internal/port/llm"
)

type fakeModels struct {
	contentCfg *genai.GenerateContentConfig
	contentRes *genai.GenerateContentResponse
	imageModel string
	imageCfg   *genai.GenerateImagesConfig
	imageRes   *genai.GenerateImagesResponse
	err        error
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, _ []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.contentCfg = cfg
	return f.contentRes, f.err
}

func (f *fakeModels) GenerateImages(_ context.Context, model, _ string, cfg *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	f.imageModel = model
	f.imageCfg = cfg
	return f.imageRes, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func TestCompleteUsesUsageMetadata(t *testing.T) {
	res := textResponse("An outline.")
	res.UsageMetadata = &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 30, CandidatesTokenCount: 42}
	fake := &fakeModels{contentRes: res}
	b := &Backend{models: fake}

	out, err := b.Complete(context.Background(), "outline", "gemini-2.5-flash", llm.Params{Temperature: 0.4, MaxOutputTokens: 512, System: "sys"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out.Text != "An outline." || out.TokensOut != 42 || out.TokensIn != 30 {
		t.Fatalf("unexpected completion: %+v", out)
	}
	if len(fake.contentCfg.Tools) != 0 {
		t.Fatal("plain completion must not attach tools")
	}
	if fake.contentCfg.MaxOutputTokens != 512 || fake.contentCfg.SystemInstruction == nil {
		t.Fatalf("unexpected config: %+v", fake.contentCfg)
	}
}

func TestCompleteGroundedCollectsSources(t *testing.T) {
	res := textResponse("Grounded answer.")
	res.Candidates[0].GroundingMetadata = &genai.GroundingMetadata{
		GroundingChunks: []*genai.GroundingChunk{
			{Web: &genai.GroundingChunkWeb{URI: "https://a.example", Title: "A"}},
			{Web: &genai.GroundingChunkWeb{URI: "https://a.example", Title: "A again"}},
			{Web: &genai.GroundingChunkWeb{URI: "https://b.example", Title: "B"}},
			{},
		},
	}
	fake := &fakeModels{contentRes: res}
	b := &Backend{models: fake}

	out, err := b.CompleteGrounded(context.Background(), "q", "m", llm.Params{})
	if err != nil {
		t.Fatalf("CompleteGrounded: %v", err)
	}
	if len(fake.contentCfg.Tools) != 1 || fake.contentCfg.Tools[0].GoogleSearch == nil {
		t.Fatal("expected the Google Search tool")
	}
	if len(out.Sources) != 2 || out.Sources[1].URL != "https://b.example" {
		t.Fatalf("unexpected sources: %+v", out.Sources)
	}
}

func TestCompleteEmpty(t *testing.T) {
	b := &Backend{models: &fakeModels{contentRes: &genai.GenerateContentResponse{}}}
	if _, err := b.Complete(context.Background(), "q", "m", llm.Params{}); !errors.Is(err, llm.ErrEmptyOutput) {
		t.Fatalf("expected ErrEmptyOutput, got %v", err)
	}
}

func TestCompleteError(t *testing.T) {
	boom := errors.New("quota exceeded")
	b := &Backend{models: &fakeModels{err: boom}}
	if _, err := b.Complete(context.Background(), "q", "m", llm.Params{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestGenerateImage(t *testing.T) {
	fake := &fakeModels{imageRes: &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{{Image: &genai.Image{ImageBytes: []byte{0x89, 0x50}, MIMEType: "image/png"}}},
	}}
	b := &Backend{models: fake, imageModel: "imagen-4.0-generate-001"}

	img, err := b.GenerateImage(context.Background(), llm.ImageRequest{Prompt: "a cross at dawn", AspectRatio: "16:9"})
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if fake.imageModel != "imagen-4.0-generate-001" || fake.imageCfg.AspectRatio != "16:9" || fake.imageCfg.NumberOfImages != 1 {
		t.Fatalf("unexpected image call: model=%q cfg=%+v", fake.imageModel, fake.imageCfg)
	}
	if len(img.InlineData) != 2 || img.MIMEType != "image/png" {
		t.Fatalf("unexpected image: %+v", img)
	}
}

func TestGenerateImageEmpty(t *testing.T) {
	b := &Backend{models: &fakeModels{imageRes: &genai.GenerateImagesResponse{}}}
	if _, err := b.GenerateImage(context.Background(), llm.ImageRequest{Prompt: "p"}); !errors.Is(err, llm.ErrEmptyOutput) {
		t.Fatalf("expected ErrEmptyOutput, got %v", err)
	}
}
