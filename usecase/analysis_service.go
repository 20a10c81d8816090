package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"go.uber.org/zap"

	"github.com/jonathanlyon/critical-dream-theory-sub000/domain"
	"github.com/jonathanlyon/critical-dream-theory-sub000/domain/entities"
	"github.com/jonathanlyon/critical-dream-theory-sub000/domain/repositories"
)

const (
	analysisTemperature = 0.7
	analysisMaxTokens   = 6000
)

const analysisSystemInstruction = "You are a dream analyst trained in Critical Dream Theory, " +
	"Schredl's dream content scales, and Jungian archetypal reading. You respond with a single " +
	"JSON document matching the requested schema exactly, with no commentary outside the JSON."

// analysisSchemaJSON is the output-shape specification embedded in every
// analysis prompt, reflected once from the StructuredAnalysis type.
var analysisSchemaJSON = reflectAnalysisSchema()

func reflectAnalysisSchema() string {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	schema := reflector.Reflect(&entities.StructuredAnalysis{})
	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		panic(err)
	}
	return string(b)
}

// AnalysisService is the structured-analysis generator: it builds the
// framework prompt, invokes the language model, and enforces the structural
// contract on the response. This stage is required; its failure aborts the
// pipeline before anything is persisted.
type AnalysisService struct {
	model  repositories.AnalysisModel
	logger *zap.Logger
}

// NewAnalysisService creates the generator.
func NewAnalysisService(model repositories.AnalysisModel, logger *zap.Logger) *AnalysisService {
	return &AnalysisService{model: model, logger: logger}
}

// Analyze produces the structured analysis for one transcript.
func (s *AnalysisService) Analyze(ctx context.Context, transcript string, durationSeconds, wordCount int) (*entities.StructuredAnalysis, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, domain.NewInputError("transcript is empty")
	}

	raw, err := s.model.Generate(ctx, repositories.GenerateRequest{
		System:      analysisSystemInstruction,
		Prompt:      buildAnalysisPrompt(transcript, durationSeconds, wordCount),
		Temperature: analysisTemperature,
		MaxTokens:   analysisMaxTokens,
	})
	if err != nil {
		return nil, domain.NewUpstreamError("analysis model", "generation failed", err)
	}

	cleaned := stripCodeFences(raw)

	var analysis entities.StructuredAnalysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		s.logger.Error("Analysis response is not valid JSON",
			zap.Int("responseLength", len(raw)),
			zap.Error(err))
		return nil, domain.NewParseError("analysis response is not valid JSON", err)
	}
	if err := analysis.Validate(); err != nil {
		s.logger.Error("Analysis response failed the structural contract", zap.Error(err))
		return nil, domain.NewParseError("analysis response missing required fields", err)
	}

	s.logger.Info("Structured analysis produced",
		zap.String("dreamType", analysis.Overview.DreamType),
		zap.Float64("confidence", analysis.Overview.Confidence))

	return &analysis, nil
}

func buildAnalysisPrompt(transcript string, durationSeconds, wordCount int) string {
	var b strings.Builder
	b.WriteString("Analyze the following dream narration.\n\n")
	fmt.Fprintf(&b, "Recording duration: %d seconds\n", durationSeconds)
	fmt.Fprintf(&b, "Word count: %d\n\n", wordCount)
	b.WriteString("Transcript:\n\"\"\"\n")
	b.WriteString(transcript)
	b.WriteString("\n\"\"\"\n\n")
	b.WriteString("Produce the full analysis: overview with dream type classification, ")
	b.WriteString("manifest content with all nine scales, the Critical Dream Theory reading ")
	b.WriteString("(vault activation, cognitive drift themes, convergence indicators, rationale), ")
	b.WriteString("archetypal resonances for every slot, and reflective prompts.\n\n")
	b.WriteString("Respond with a single JSON document matching this schema:\n")
	b.WriteString(analysisSchemaJSON)
	return b.String()
}

// stripCodeFences removes a ``` or ```json wrapper the model may have added
// around its JSON.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
