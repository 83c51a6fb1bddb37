// Package generation runs the content-generation sequence shared by the
// destination, package and itinerary endpoints.
package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/af-corp/tourdesk/internal/config"
	"github.com/af-corp/tourdesk/internal/imagesearch"
	"github.com/af-corp/tourdesk/internal/injection"
	"github.com/af-corp/tourdesk/internal/prompt"
	"github.com/af-corp/tourdesk/internal/sanitize"
	"github.com/af-corp/tourdesk/internal/schema"
	"github.com/af-corp/tourdesk/internal/store"
	"github.com/af-corp/tourdesk/internal/telemetry"
	"github.com/af-corp/tourdesk/internal/types"
)

// Generator performs one text-generation call. *llm.Client implements it.
type Generator interface {
	Generate(ctx context.Context, alias string, req types.GenerateRequest) (*types.GenerateResponse, error)
}

// Deps are the collaborators shared by every pipeline.
type Deps struct {
	Generator Generator
	Store     store.Store
	Images    imagesearch.Searcher
	Injection *injection.Scanner
	Metrics   *telemetry.Metrics
	Config    func() config.GenerationConfig
}

// Plan is what a flow prepares before the generator is called.
type Plan struct {
	Prompt string
	Schema *schema.Schema
	// Inputs are the user-supplied values interpolated into Prompt.
	Inputs    map[string]string
	WantImage bool
}

// Flow supplies the entity-specific steps of a Pipeline.
type Flow[Req, Payload, Result any] struct {
	Kind          types.EntityKind
	RequestSchema *schema.Schema
	Model         func(config.GenerationConfig) string

	// Lookup returns an existing record that makes generation unnecessary.
	// Optional.
	Lookup  func(ctx context.Context, req Req) (existing any, err error)
	Prepare func(ctx context.Context, req Req) (Plan, error)
	// Check runs after schema validation for rules a schema cannot express.
	// Optional.
	Check      func(req Req, payload Payload) []schema.Issue
	ImageQuery func(req Req, payload Payload) string
	Shape      func(req Req, payload Payload, img *imagesearch.Image) Result
}

// Outcome is a successful pipeline run.
type Outcome struct {
	Data     any
	Message  string
	Existing bool
}

// Pipeline runs a Flow: validate, duplicate check, prompt, generate,
// sanitize, parse, validate, enrich, shape.
type Pipeline[Req, Payload, Result any] struct {
	flow Flow[Req, Payload, Result]
	deps Deps
}

func NewPipeline[Req, Payload, Result any](flow Flow[Req, Payload, Result], deps Deps) *Pipeline[Req, Payload, Result] {
	if deps.Images == nil {
		deps.Images = imagesearch.Noop{}
	}
	if deps.Config == nil {
		deps.Config = func() config.GenerationConfig { return config.DefaultConfig().Generation }
	}
	return &Pipeline[Req, Payload, Result]{flow: flow, deps: deps}
}

func (p *Pipeline[Req, Payload, Result]) Kind() types.EntityKind { return p.flow.Kind }

// Run executes the flow for one request body. Every returned error is an
// *Error.
func (p *Pipeline[Req, Payload, Result]) Run(ctx context.Context, requestID string, body []byte) (*Outcome, error) {
	start := time.Now()
	entity := string(p.flow.Kind)

	ctx, span := telemetry.StartSpan(ctx, "generation."+entity)
	defer span.End()
	span.SetAttributes(
		attribute.String("generation.entity", entity),
		attribute.String("request_id", requestID),
	)

	labels := telemetry.GenerationLabels{Entity: entity}
	out, err := p.run(ctx, requestID, body, start, &labels)

	labels.DurationMs = float64(time.Since(start).Milliseconds())
	logAttrs := []any{
		"request_id", requestID,
		"entity", entity,
		"model", labels.Model,
		"provider", labels.Provider,
		"prompt_tokens", labels.PromptTokens,
		"completion_tokens", labels.CompletionTokens,
		"estimated_cost_usd", labels.CostUSD,
		"duration_ms", labels.DurationMs,
	}

	if err != nil {
		genErr := Classify(err)
		labels.Status = genErr.Kind.String()
		span.SetStatus(codes.Error, genErr.Message)
		if genErr.Err != nil {
			span.RecordError(genErr.Err)
		}
		logAttrs = append(logAttrs, "status", labels.Status, "http_status", genErr.Kind.HTTPStatus())
		if genErr.Err != nil {
			logAttrs = append(logAttrs, "error", genErr.Err)
		}
		if genErr.Kind.HTTPStatus() >= 500 {
			slog.Error("generation failed", logAttrs...)
		} else {
			slog.Warn("generation rejected", logAttrs...)
		}
		p.record(labels)
		return nil, genErr
	}

	labels.Status = "success"
	if out.Existing {
		labels.Status = "existing"
	}
	slog.Info("generation completed", append(logAttrs, "status", labels.Status)...)
	p.record(labels)
	return out, nil
}

func (p *Pipeline[Req, Payload, Result]) run(ctx context.Context, requestID string, body []byte, start time.Time, labels *telemetry.GenerationLabels) (*Outcome, error) {
	label := p.flow.Kind.Label()

	if res := schema.ValidateJSON(p.flow.RequestSchema, body); !res.Valid {
		return nil, &Error{Kind: KindInvalidInput, Message: "Invalid request body", Issues: res.Issues}
	}
	var req Req
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &Error{
			Kind:    KindInvalidInput,
			Message: "Invalid request body",
			Issues:  []schema.Issue{{Field: "(root)", Message: err.Error(), Code: "invalid_type"}},
		}
	}

	if p.flow.Lookup != nil {
		existing, err := p.flow.Lookup(ctx, req)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &Outcome{
				Data:     existing,
				Message:  label + " already exists",
				Existing: true,
			}, nil
		}
	}

	plan, err := p.flow.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	p.flagInjection(ctx, requestID, plan.Inputs)

	cfg := p.deps.Config()
	resp, err := p.deps.Generator.Generate(ctx, p.flow.Model(cfg), types.GenerateRequest{
		RequestID:  requestID,
		Entity:     p.flow.Kind,
		Prompt:     plan.Prompt,
		System:     prompt.System,
		JSONMode:   true,
		ReceivedAt: start,
	})
	if err != nil {
		return nil, err
	}
	labels.Model = resp.Model
	labels.Provider = resp.Provider
	labels.UpstreamMs = float64(resp.Latency.Milliseconds())
	labels.PromptTokens = resp.Usage.PromptTokens
	labels.CompletionTokens = resp.Usage.CompletionTokens
	labels.CostUSD = resp.EstimatedCostUSD

	if strings.TrimSpace(resp.Text) == "" {
		return nil, &Error{Kind: KindUpstreamEmpty, Message: "Empty response from AI service"}
	}

	preview := sanitize.Preview(resp.Text, cfg.PreviewLength)
	parsed := Parse[Payload](resp.Text, plan.Schema)
	switch parsed.Status {
	case ParseFailed:
		return nil, &Error{
			Kind:    KindUpstreamMalformed,
			Message: "Failed to parse AI response",
			Preview: preview,
			Err:     fmt.Errorf("parse generator output: %s", parsed.Reason),
		}
	case SchemaFailed:
		return nil, &Error{
			Kind:    KindUpstreamSchema,
			Message: "AI response did not match the expected format",
			Issues:  parsed.Issues,
			Preview: preview,
		}
	}
	payload := parsed.Payload

	if p.flow.Check != nil {
		if issues := p.flow.Check(req, payload); len(issues) > 0 {
			return nil, &Error{
				Kind:    KindUpstreamSchema,
				Message: "AI response did not match the expected format",
				Issues:  issues,
				Preview: preview,
			}
		}
	}

	var img *imagesearch.Image
	if plan.WantImage && p.flow.ImageQuery != nil {
		img = p.enrich(ctx, requestID, p.flow.ImageQuery(req, payload))
	}

	return &Outcome{
		Data:    p.flow.Shape(req, payload, img),
		Message: label + " content generated successfully",
	}, nil
}

// enrich looks up an image. Failures are logged and leave the image empty.
func (p *Pipeline[Req, Payload, Result]) enrich(ctx context.Context, requestID, query string) *imagesearch.Image {
	img, err := p.deps.Images.Search(ctx, query)
	if err != nil {
		slog.Warn("image lookup failed",
			"request_id", requestID,
			"entity", string(p.flow.Kind),
			"query", query,
			"error", err,
		)
		return nil
	}
	return img
}

// flagInjection reports suspicious user values. It never blocks.
func (p *Pipeline[Req, Payload, Result]) flagInjection(ctx context.Context, requestID string, inputs map[string]string) {
	if p.deps.Injection == nil || len(inputs) == 0 {
		return
	}
	report := p.deps.Injection.Check(inputs)
	if !report.Flagged {
		return
	}

	fields := make([]string, 0, len(report.Detections))
	seen := make(map[string]bool)
	for _, d := range report.Detections {
		if !seen[d.Field] {
			seen[d.Field] = true
			fields = append(fields, d.Field)
		}
	}

	slog.Warn("possible prompt injection in user input",
		"request_id", requestID,
		"entity", string(p.flow.Kind),
		"fields", fields,
		"rules", report.Rules(),
		"score", report.Score,
	)
	telemetry.SpanFromContext(ctx).SetAttributes(
		attribute.Bool("generation.injection_flagged", true),
		attribute.Float64("generation.injection_score", report.Score),
	)
	if p.deps.Metrics != nil {
		p.deps.Metrics.RecordInjectionFlag(string(p.flow.Kind))
	}
}

func (p *Pipeline[Req, Payload, Result]) record(labels telemetry.GenerationLabels) {
	if p.deps.Metrics != nil {
		p.deps.Metrics.RecordGeneration(labels)
	}
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}
