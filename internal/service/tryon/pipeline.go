package tryon

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"fashnary/api/internal/service/gemini"

	"github.com/vincent-petithory/dataurl"
)

const (
	DefaultTextModel = "gemini-2.0-flash"

	// Prompts shorter than this are logged but still used.
	minPromptLength = 20

	promptTemperature = 0.2
)

const promptInstruction = `You are given two images.
Image 1 shows a person. Image 2 shows a clothing item.
Write a single descriptive prompt for an image generation model that shows the exact person from image 1 wearing the exact clothing item from image 2.
Preserve the identity and appearance of the person in image 1: face, skin tone, hair, body shape and pose.
Preserve the exact garment in image 2: type, color, graphic, pattern and fit.
Merge both into one descriptive sentence or paragraph set in a clean e-commerce studio photo.
Output only the prompt text, with no commentary, no preamble and no markdown.`

// PromptGenerator is the multimodal text-generation call. *gemini.Client satisfies it.
type PromptGenerator interface {
	GenerateContent(ctx context.Context, model string, req *gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error)
}

type Config struct {
	APIKey      string
	TextModel   string
	CallTimeout time.Duration
}

// Request carries the two input images as base64 with their declared MIME types.
type Request struct {
	UserImageBase64      string `json:"user_image_base64" validate:"required"`
	UserImageMimeType    string `json:"user_image_mimetype" validate:"required"`
	ProductImageBase64   string `json:"product_image_base64" validate:"required"`
	ProductImageMimeType string `json:"product_image_mimetype" validate:"required"`
}

type Result struct {
	// ImageDataURL is data:<mime>;base64,<payload>.
	ImageDataURL string
	// MimeType is parsed back out of ImageDataURL.
	MimeType string
	Prompt   string
	// Synthesized is false while image synthesis is not implemented and the
	// user image is returned unchanged.
	Synthesized bool
}

type SynthesisStatus string

const (
	SynthesisComplete       SynthesisStatus = "complete"
	SynthesisNotImplemented SynthesisStatus = "not_implemented"
)

type synthesis struct {
	Status   SynthesisStatus
	Image    []byte
	MimeType string
}

type inputImage struct {
	data     []byte
	mimeType string
}

type Pipeline struct {
	cfg       Config
	generator PromptGenerator
	logger    *slog.Logger
}

func NewPipeline(cfg Config, generator PromptGenerator, logger *slog.Logger) *Pipeline {
	if cfg.TextModel == "" {
		cfg.TextModel = DefaultTextModel
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, generator: generator, logger: logger}
}

// Generate runs the try-on stages in order. Failures are ErrMisconfigured,
// *ValidationError or *UpstreamError.
func (p *Pipeline) Generate(ctx context.Context, req Request) (*Result, error) {
	// 1. Precondition
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		observeOutcome("misconfigured")
		return nil, ErrMisconfigured
	}

	person, err := decodeImage("user_image", req.UserImageBase64, req.UserImageMimeType)
	if err != nil {
		observeOutcome("invalid")
		return nil, err
	}
	garment, err := decodeImage("product_image", req.ProductImageBase64, req.ProductImageMimeType)
	if err != nil {
		observeOutcome("invalid")
		return nil, err
	}

	// 2-3. Prompt synthesis and validation
	prompt, err := p.synthesizePrompt(ctx, person, garment)
	if err != nil {
		observeOutcome("upstream")
		return nil, err
	}

	// 4. Image synthesis
	synth := p.synthesizeImage(ctx, prompt, person)

	// 5. Normalization
	out := dataurl.New(synth.Image, synth.MimeType).String()
	parsed, err := dataurl.DecodeString(out)
	if err != nil {
		observeOutcome("upstream")
		return nil, &UpstreamError{Stage: "normalize", Detail: "generated image could not be encoded", Err: err}
	}
	mimeType := parsed.ContentType()

	observeOutcome("ok")
	return &Result{
		ImageDataURL: out,
		MimeType:     mimeType,
		Prompt:       prompt,
		Synthesized:  synth.Status == SynthesisComplete,
	}, nil
}

func (p *Pipeline) synthesizePrompt(ctx context.Context, person, garment inputImage) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.cfg.CallTimeout)
	defer cancel()

	start := time.Now()
	resp, err := p.generator.GenerateContent(callCtx, p.cfg.TextModel, buildPromptRequest(person, garment))
	observeStage("prompt", start)
	if err != nil {
		if ctx.Err() != nil {
			// The caller went away; nothing upstream is at fault.
			p.logger.InfoContext(ctx, "prompt synthesis abandoned", slog.String("error", err.Error()))
		} else {
			p.logger.ErrorContext(ctx, "prompt synthesis failed", slog.String("error", err.Error()))
		}
		return "", upstreamError("prompt", err)
	}

	prompt := strings.TrimSpace(resp.Text())
	if prompt == "" {
		return "", &UpstreamError{Stage: "prompt", Detail: "Gemini processing failed: generated prompt was empty"}
	}
	if n := utf8.RuneCountInString(prompt); n < minPromptLength {
		p.logger.WarnContext(ctx, "generated prompt is unusually short",
			slog.Int("length", n),
			slog.String("prompt", prompt),
		)
	}
	return prompt, nil
}

func buildPromptRequest(person, garment inputImage) *gemini.GenerateContentRequest {
	temperature := float32(promptTemperature)
	return &gemini.GenerateContentRequest{
		Contents: []gemini.Content{{
			Role: gemini.RoleUser,
			Parts: []gemini.Part{
				{InlineData: &gemini.Blob{MimeType: person.mimeType, Data: person.data}},
				{InlineData: &gemini.Blob{MimeType: garment.mimeType, Data: garment.data}},
				{Text: promptInstruction},
			},
		}},
		GenerationConfig: &gemini.GenerationConfig{Temperature: &temperature},
		// Internal tool: every harm category is left unfiltered. Do not relax
		// further without review.
		SafetySettings: []gemini.SafetySetting{
			{Category: gemini.HarmCategoryHarassment, Threshold: gemini.BlockNone},
			{Category: gemini.HarmCategoryHateSpeech, Threshold: gemini.BlockNone},
			{Category: gemini.HarmCategorySexuallyExplicit, Threshold: gemini.BlockNone},
			{Category: gemini.HarmCategoryDangerousContent, Threshold: gemini.BlockNone},
		},
	}
}

// synthesizeImage is not implemented yet: it returns the person image
// unchanged and says so in the status.
// TODO: call an image-generation model with prompt once its request/response contract is settled.
func (p *Pipeline) synthesizeImage(ctx context.Context, prompt string, person inputImage) synthesis {
	p.logger.InfoContext(ctx, "image synthesis not implemented, returning user image",
		slog.Int("prompt_length", len(prompt)),
	)
	return synthesis{
		Status:   SynthesisNotImplemented,
		Image:    person.data,
		MimeType: person.mimeType,
	}
}

func decodeImage(field, payload, mimeType string) (inputImage, error) {
	mimeType = strings.TrimSpace(mimeType)
	if !isImageMIME(mimeType) {
		return inputImage{}, &ValidationError{Field: field + "_mimetype", Detail: fmt.Sprintf("unsupported mime type %q", mimeType)}
	}

	payload = strings.TrimSpace(payload)
	var data []byte
	// Accept a full data URL as well as a bare payload.
	if du, err := dataurl.DecodeString(payload); err == nil {
		data = du.Data
	} else {
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return inputImage{}, &ValidationError{Field: field + "_base64", Detail: "invalid base64 payload"}
		}
		data = raw
	}
	if len(data) == 0 {
		return inputImage{}, &ValidationError{Field: field + "_base64", Detail: "empty image"}
	}
	return inputImage{data: data, mimeType: mimeType}, nil
}

// isImageMIME accepts a bare image/<subtype> with no parameters.
func isImageMIME(s string) bool {
	typ, sub, ok := strings.Cut(s, "/")
	return ok && typ == "image" && sub != "" && !strings.ContainsAny(sub, "/;, \t")
}
