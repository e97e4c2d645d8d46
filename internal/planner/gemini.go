// internal/planner/gemini.go
package planner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/xkilldash9x/ghost/internal/config"
)

// GeminiPlanner asks a Gemini model for tool calls.
type GeminiPlanner struct {
	client  *genai.Client
	model   string
	budget  int32
	timeout time.Duration
	limiter *rate.Limiter
	tools   []*genai.Tool
	logger  *zap.Logger
}

// NewGeminiPlanner initializes the client. An API key is required.
func NewGeminiPlanner(ctx context.Context, cfg config.PlannerConfig, logger *zap.Logger) (*GeminiPlanner, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required (set GHOST_PLANNER_API_KEY)")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 10
	}
	return &GeminiPlanner{
		client:  client,
		model:   cfg.Model,
		budget:  cfg.ThinkingBudget,
		timeout: cfg.Timeout,
		limiter: rate.NewLimiter(rate.Limit(rpm/60), 1),
		tools:   []*genai.Tool{{FunctionDeclarations: functionDeclarations()}},
		logger:  logger.Named("planner.gemini"),
	}, nil
}

// Plan sends one request. Failures are returned as-is; nothing is retried.
func (g *GeminiPlanner) Plan(ctx context.Context, req Request) (*Response, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	parts := []*genai.Part{genai.NewPartFromBytes(req.Image, "image/png")}
	if ref := req.Reference; ref != nil && len(ref.Data) > 0 {
		mime := ref.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, genai.NewPartFromBytes(ref.Data, mime))
	}
	parts = append(parts, genai.NewPartFromText("COMMAND: "+req.Instruction))

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction(req), genai.RoleUser),
		Tools:             g.tools,
		ThinkingConfig:    &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(g.budget)},
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini API returned no candidates")
	}

	out := &Response{}
	for _, part := range resp.Candidates[0].Content.Parts {
		switch {
		case part.FunctionCall != nil:
			out.Calls = append(out.Calls, ToolCall{Name: part.FunctionCall.Name, Args: part.FunctionCall.Args})
		case part.Text != "" && !part.Thought:
			out.Text += part.Text
		}
	}

	fields := []zap.Field{
		zap.Duration("duration", time.Since(start)),
		zap.Int("tool_calls", len(out.Calls)),
	}
	if u := resp.UsageMetadata; u != nil {
		fields = append(fields,
			zap.Int32("prompt_tokens", u.PromptTokenCount),
			zap.Int32("completion_tokens", u.CandidatesTokenCount),
			zap.Int32("total_tokens", u.TotalTokenCount),
		)
	}
	g.logger.Info("Planning round-trip complete", fields...)
	return out, nil
}

func functionDeclarations() []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		props := make(map[string]*genai.Schema, len(t.params))
		order := make([]string, 0, len(t.params))
		for _, p := range t.params {
			typ := genai.TypeNumber
			if p.kind == kindString {
				typ = genai.TypeString
			}
			props[p.name] = &genai.Schema{Type: typ, Description: p.description}
			order = append(order, p.name)
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.name,
			Description: t.description,
			Parameters: &genai.Schema{
				Type:             genai.TypeObject,
				Properties:       props,
				PropertyOrdering: order,
				Required:         t.required,
			},
		})
	}
	return decls
}

func systemInstruction(req Request) string {
	w, h := float64(req.Width), float64(req.Height)
	return fmt.Sprintf(`You are 'Ghost', an elite Digital Architect collaborating with a human in real-time.

**CRITICAL COORDINATE SYSTEM RULES:**
1. **Visual Context:** The image you receive is the **CURRENT VISIBLE SCREEN**.
2. **Coordinate Mapping:**
   - x=0, y=0 is the TOP-LEFT of the image.
   - x=%d, y=%d is the BOTTOM-RIGHT.
3. **Center-Targeting:** ALL coordinates you generate (for creating, moving, or rendering) will be treated as the **CENTER POINT** of that object.
   - To place something in the top-left corner, use x=%g, y=%g.
   - To place something in the center, use x=%g, y=%g.

**BEHAVIOR PROTOCOL:**
1. **Plan Visually:** Before building complex apps, use `+"`write_text`"+` to list steps, or `+"`draw_path`"+` to sketch arrows/circles indicating plans.
2. **Explain Step-by-Step:** Write short notes on the canvas (e.g., "Step 1: Layout") next to work areas.
3. **Precision:** When using `+"`drag_object`"+`, ensure `+"`toX`"+` and `+"`toY`"+` are valid visible locations.

**TOOL USAGE:**
- **ANNOTATION (write_text):** Use for plans, labels, answers.
- **SCRIBBLING (draw_path):** Use for arrows, circles, connectors.
- **APPS (render_html_element):** For functional UI.

**CONTEXT:**
- Visible Viewport Size: %dx%d
- Existing Objects: %s

Respond with a clear plan and precise tool calls.`,
		req.Width, req.Height,
		w*0.1, h*0.1,
		w/2, h/2,
		req.Width, req.Height,
		Summarize(req.Objects),
	)
}
