package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/Rishab-Kumar09/AI-Ad-generator/internal/config"
	"github.com/Rishab-Kumar09/AI-Ad-generator/internal/domain"
)

const (
	requestTimeout = 10 * time.Minute

	analysisRetries = 3
)

// GenerateSchema generates a JSON schema for structured outputs.
func GenerateSchema[T any]() interface{} {
	// Structured Outputs uses a subset of JSON schema
	// These flags are necessary to comply with the subset
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// analysisResponse is the structured vision output for one image.
type analysisResponse struct {
	Description string   `json:"description" jsonschema_description:"Two or three sentences describing what the image shows, written to inform an ad script"`
	FeatureTags []string `json:"feature_tags" jsonschema_description:"Three to six short selling-point tags visible in the image"`
}

// scriptResponse is the structured output of script drafting.
type scriptResponse struct {
	Script string `json:"script" jsonschema_description:"The complete spoken voiceover script, plain sentences only, no stage directions"`
}

var (
	analysisResponseSchema = GenerateSchema[analysisResponse]()
	scriptResponseSchema   = GenerateSchema[scriptResponse]()
)

// OpenAIService implements the vision, drafting and speech capabilities on a
// single vendor client.
type OpenAIService struct {
	client      openai.Client
	apiKey      string
	visionModel string
	scriptModel string
	ttsModel    string

	// backoffUnit is the linear-backoff step between analysis retries.
	backoffUnit time.Duration
}

func NewOpenAIService(cfg config.Config) *OpenAIService {
	return &OpenAIService{
		client:      openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey)),
		apiKey:      cfg.OpenAIAPIKey,
		visionModel: cfg.OpenAIModelVision,
		scriptModel: cfg.OpenAIModelScript,
		ttsModel:    cfg.OpenAIModelTTS,
		backoffUnit: time.Second,
	}
}

func (s *OpenAIService) ensureAPIKey() error {
	if strings.TrimSpace(s.apiKey) == "" {
		return &ConfigurationError{Missing: "OPENAI_API_KEY"}
	}
	return nil
}

// DescribeImage asks the vision model to describe one uploaded image in its
// category and niche context. Failures are retried up to 3 times with linear
// backoff (1s, 2s, 3s) before the error propagates. No other capability is
// retried.
func (s *OpenAIService) DescribeImage(ctx context.Context, imageBytes []byte, mimeType string, asset domain.UploadedAsset, niche domain.Niche) (domain.ImageAnalysis, error) {
	if err := s.ensureAPIKey(); err != nil {
		return domain.ImageAnalysis{}, err
	}

	prompt := fmt.Sprintf(`You are describing %s for a short video ad.
The uploader labeled this image %q.
Describe what the image shows and list its strongest selling points.`,
		domain.VisionContextFor(niche), asset.Category)

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageBytes))

	var lastErr error
	for attempt := 0; attempt <= analysisRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * s.backoffUnit
			select {
			case <-ctx.Done():
				return domain.ImageAnalysis{}, &AnalysisError{FileName: asset.FileName, Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		resp, err := s.describeOnce(ctx, prompt, dataURL)
		if err == nil {
			return domain.ImageAnalysis{
				Category:    asset.Category,
				Description: strings.TrimSpace(resp.Description),
				FeatureTags: resp.FeatureTags,
			}, nil
		}
		lastErr = err
	}

	return domain.ImageAnalysis{}, &AnalysisError{FileName: asset.FileName, Err: lastErr}
}

func (s *OpenAIService) describeOnce(ctx context.Context, prompt, dataURL string) (*analysisResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "image_analysis",
		Description: openai.String("A description of one ad image"),
		Schema:      analysisResponseSchema,
		Strict:      openai.Bool(true),
	}

	chatCompletion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}),
		},
		Model: openai.ChatModel(s.visionModel),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(chatCompletion.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	var resp analysisResponse
	if err := json.Unmarshal([]byte(chatCompletion.Choices[0].Message.Content), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAI JSON response: %w", err)
	}
	if strings.TrimSpace(resp.Description) == "" {
		return nil, fmt.Errorf("OpenAI returned empty description")
	}
	return &resp, nil
}

// DraftScript combines the per-image descriptions into one ad voiceover.
func (s *OpenAIService) DraftScript(ctx context.Context, assets []domain.UploadedAsset, analyses map[string]domain.ImageAnalysis, niche domain.Niche) (string, error) {
	if err := s.ensureAPIKey(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var sb strings.Builder
	for i, a := range assets {
		analysis, ok := analyses[a.FileName]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "\n%d. [%s] %s", i+1, a.Category, analysis.Description)
		if len(analysis.FeatureTags) > 0 {
			fmt.Fprintf(&sb, " (highlights: %s)", strings.Join(analysis.FeatureTags, ", "))
		}
	}

	prompt := fmt.Sprintf(`You are writing the voiceover for a short %s video ad.
The ad shows these images, in this order:%s

Write a warm, persuasive 30-45 second spoken script that walks through the
images in order, mentioning each image's subject by name (e.g. say "kitchen"
when the kitchen is shown). Plain spoken sentences only: no stage directions,
no markdown, no speaker labels, no scene headings.`, niche, sb.String())

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "ad_script",
		Description: openai.String("A spoken voiceover script for a video ad"),
		Schema:      scriptResponseSchema,
		Strict:      openai.Bool(true),
	}

	chatCompletion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(s.scriptModel),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
	})
	if err != nil {
		return "", &DraftError{Err: fmt.Errorf("OpenAI API error: %w", err)}
	}
	if len(chatCompletion.Choices) == 0 {
		return "", &DraftError{Err: fmt.Errorf("no response from OpenAI")}
	}

	var resp scriptResponse
	if err := json.Unmarshal([]byte(chatCompletion.Choices[0].Message.Content), &resp); err != nil {
		return "", &DraftError{Err: fmt.Errorf("failed to parse OpenAI JSON response: %w", err)}
	}

	draft := strings.TrimSpace(resp.Script)
	if draft == "" {
		return "", &DraftError{Err: fmt.Errorf("OpenAI returned empty script")}
	}
	return draft, nil
}

// SynthesizeSpeech renders the script with the chosen voice and returns the
// raw audio bytes.
func (s *OpenAIService) SynthesizeSpeech(ctx context.Context, text, voiceID string) ([]byte, error) {
	if err := s.ensureAPIKey(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: openai.SpeechModel(s.ttsModel),
		Voice: openai.AudioSpeechNewParamsVoice(voiceID),
		Input: text,
	})
	if err != nil {
		return nil, &SynthesisError{Err: fmt.Errorf("OpenAI API error: %w", err)}
	}
	defer res.Body.Close()

	audio, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &SynthesisError{Err: fmt.Errorf("read audio stream: %w", err)}
	}
	if len(audio) == 0 {
		return nil, &SynthesisError{Err: fmt.Errorf("OpenAI returned empty audio")}
	}
	return audio, nil
}
